package meals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/postcardmijo/food/internal/models"
)

// Slot is a durable key-value slot holding the serialized meal list
type Slot interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// GormSlot stores slots as rows of the storage_slots table
type GormSlot struct {
	db *gorm.DB
}

// NewGormSlot migrates the slot table and returns a slot backed by db
func NewGormSlot(db *gorm.DB) (*GormSlot, error) {
	if err := db.AutoMigrate(&models.StorageSlot{}).Error; err != nil {
		return nil, fmt.Errorf("migrating storage slots: %w", err)
	}
	return &GormSlot{db: db}, nil
}

// Get reads the value stored under key
func (s *GormSlot) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var slot models.StorageSlot
	err := s.db.Where("slot_key = ?", key).First(&slot).Error
	if gorm.IsRecordNotFoundError(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading slot %q: %w", key, err)
	}
	return slot.Value, true, nil
}

// Set replaces the value stored under key
func (s *GormSlot) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("beginning slot write: %w", tx.Error)
	}

	var existing models.StorageSlot
	err := tx.Where("slot_key = ?", key).First(&existing).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		err = tx.Create(&models.StorageSlot{Key: key, Value: value, UpdatedAt: time.Now()}).Error
	case err == nil:
		err = tx.Model(&existing).Updates(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}).Error
	}
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("writing slot %q: %w", key, err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("committing slot %q: %w", key, err)
	}
	return nil
}

// MemorySlot keeps slots in process memory
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySlot creates an empty in-memory slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

func (s *MemorySlot) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemorySlot) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
