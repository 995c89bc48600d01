package inventory

import (
	"context"
	"log"

	"github.com/postcardmijo/food/internal/models"
)

// Observer is notified of stock changes
type Observer interface {
	InventoryAdjusted(hall string, amount float64)
}

// Service applies stock changes and pushes the new hall snapshot to live
// subscribers.
type Service struct {
	repo     *Repository
	hub      *Hub
	observer Observer
}

// NewService wires a repository to a hub
func NewService(repo *Repository, hub *Hub, observer Observer) *Service {
	return &Service{repo: repo, hub: hub, observer: observer}
}

// Hub returns the live subscription hub
func (s *Service) Hub() *Hub {
	return s.hub
}

// Snapshot lists a hall's current stock
func (s *Service) Snapshot(ctx context.Context, hallID string) ([]models.InventoryItem, error) {
	return s.repo.ListByHall(ctx, hallID)
}

// Watch subscribes to hall and then reads its current stock, so no change
// committed after the returned snapshot is missed. The caller owns the
// subscription and must unsubscribe it.
func (s *Service) Watch(ctx context.Context, hallID string) (*Subscription, []models.InventoryItem, error) {
	sub := s.hub.Subscribe(hallID)
	items, err := s.repo.ListByHall(ctx, hallID)
	if err != nil {
		s.hub.Unsubscribe(sub)
		return nil, nil, err
	}
	return sub, items, nil
}

// Get returns one item
func (s *Service) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	return s.repo.Get(ctx, id)
}

// Create stocks a new item
func (s *Service) Create(ctx context.Context, item *models.InventoryItem) error {
	if err := s.repo.Create(ctx, item); err != nil {
		return err
	}
	s.publish(ctx, item.HallID)
	return nil
}

// Adjust refills (positive) or removes (negative) stock of an item
func (s *Service) Adjust(ctx context.Context, id uint, amount float64) (*models.InventoryItem, error) {
	item, err := s.repo.Adjust(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.InventoryAdjusted(item.HallID, amount)
	}
	s.publish(ctx, item.HallID)
	return item, nil
}

// RecordConsumption books servings eaten through a logged meal
func (s *Service) RecordConsumption(ctx context.Context, hallID, itemName string, servings float64) (*models.InventoryItem, error) {
	item, err := s.repo.RecordConsumption(ctx, hallID, itemName, servings)
	if err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.InventoryAdjusted(hallID, -servings)
	}
	s.publish(ctx, hallID)
	return item, nil
}

// ResetDaily starts a new service day for hall
func (s *Service) ResetDaily(ctx context.Context, hallID string) error {
	if err := s.repo.ResetDaily(ctx, hallID); err != nil {
		return err
	}
	s.publish(ctx, hallID)
	return nil
}

func (s *Service) publish(ctx context.Context, hallID string) {
	if s.hub.Subscribers(hallID) == 0 {
		return
	}
	items, err := s.repo.ListByHall(ctx, hallID)
	if err != nil {
		log.Printf("inventory: snapshot for %s failed: %v", hallID, err)
		return
	}
	s.hub.Publish(hallID, items)
}
