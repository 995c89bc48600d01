package models

import "time"

// InventoryItem is the live stock count of one dish at one dining hall
type InventoryItem struct {
	ID                    uint      `gorm:"primary_key" json:"id"`
	HallID                string    `gorm:"index" json:"hall_id"`
	ItemName              string    `gorm:"index" json:"item_name"`
	QuantityRemaining     float64   `json:"quantity_remaining"`
	QuantityConsumedToday float64   `json:"quantity_consumed_today"`
	LastUpdated           time.Time `json:"last_updated"`
}

// TableName sets the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "inventory"
}

// InventoryStatus represents the status of an inventory item
type InventoryStatus string

const (
	// Inventory statuses
	StatusInStock    InventoryStatus = "in_stock"
	StatusLow        InventoryStatus = "low"
	StatusOutOfStock InventoryStatus = "out_of_stock"
)

// Status classifies the remaining quantity against a restock trigger
func (i InventoryItem) Status(restockTrigger float64) InventoryStatus {
	switch {
	case i.QuantityRemaining <= 0:
		return StatusOutOfStock
	case i.QuantityRemaining < restockTrigger:
		return StatusLow
	default:
		return StatusInStock
	}
}
