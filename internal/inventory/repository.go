package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/postcardmijo/food/internal/models"
)

// ErrItemNotFound is returned when no inventory row matches
var ErrItemNotFound = errors.New("inventory item not found")

// DefaultSeedQuantity is the stock assumed for an item first seen through consumption
const DefaultSeedQuantity = 50

// Repository persists inventory rows. Quantity changes are applied as SQL
// increments so concurrent writers never lose updates.
type Repository struct {
	db   *gorm.DB
	seed float64
	now  func() time.Time
}

// NewRepository migrates the inventory table
func NewRepository(db *gorm.DB, seed float64) (*Repository, error) {
	if err := db.AutoMigrate(&models.InventoryItem{}).Error; err != nil {
		return nil, fmt.Errorf("migrating inventory: %w", err)
	}
	if seed <= 0 {
		seed = DefaultSeedQuantity
	}
	return &Repository{db: db, seed: seed, now: time.Now}, nil
}

// ListByHall returns every item stocked at hall ordered by name
func (r *Repository) ListByHall(ctx context.Context, hallID string) ([]models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]models.InventoryItem, 0)
	if err := r.db.Where("hall_id = ?", hallID).Order("item_name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("listing inventory for %s: %w", hallID, err)
	}
	return items, nil
}

// Get returns one item by id
func (r *Repository) Get(ctx context.Context, id uint) (*models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item models.InventoryItem
	err := r.db.Where("id = ?", id).First(&item).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading inventory item %d: %w", id, err)
	}
	return &item, nil
}

// Create inserts a new item
func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item.LastUpdated = r.now()
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("creating inventory item %q: %w", item.ItemName, err)
	}
	return nil
}

// Adjust adds amount to the remaining stock. Negative amounts are counted as
// consumed today.
func (r *Repository) Adjust(ctx context.Context, id uint, amount float64) (*models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	consumed := 0.0
	if amount < 0 {
		consumed = -amount
	}

	res := r.db.Model(&models.InventoryItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity_remaining":      gorm.Expr("quantity_remaining + ?", amount),
		"quantity_consumed_today": gorm.Expr("quantity_consumed_today + ?", consumed),
		"last_updated":            r.now(),
	})
	if res.Error != nil {
		return nil, fmt.Errorf("adjusting inventory item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return r.Get(ctx, id)
}

// RecordConsumption books servings of itemName eaten at hall, creating the
// item with the seed stock if it has never been seen.
func (r *Repository) RecordConsumption(ctx context.Context, hallID, itemName string, servings float64) (*models.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := r.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("beginning consumption update: %w", tx.Error)
	}

	var item models.InventoryItem
	err := tx.Where("hall_id = ? AND item_name = ?", hallID, itemName).First(&item).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		item = models.InventoryItem{
			HallID:                hallID,
			ItemName:              itemName,
			QuantityRemaining:     r.seed - servings,
			QuantityConsumedToday: servings,
			LastUpdated:           r.now(),
		}
		err = tx.Create(&item).Error
	case err == nil:
		err = tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"quantity_remaining":      gorm.Expr("quantity_remaining - ?", servings),
			"quantity_consumed_today": gorm.Expr("quantity_consumed_today + ?", servings),
			"last_updated":            r.now(),
		}).Error
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("recording consumption of %q at %s: %w", itemName, hallID, err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("committing consumption of %q: %w", itemName, err)
	}
	return r.Get(ctx, item.ID)
}

// ResetDaily zeroes the consumed-today counters of every item at hall
func (r *Repository) ResetDaily(ctx context.Context, hallID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Model(&models.InventoryItem{}).Where("hall_id = ?", hallID).
		Updates(map[string]interface{}{"quantity_consumed_today": 0, "last_updated": r.now()}).Error
	if err != nil {
		return fmt.Errorf("resetting daily consumption at %s: %w", hallID, err)
	}
	return nil
}
