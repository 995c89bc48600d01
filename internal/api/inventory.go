package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/postcardmijo/food/internal/inventory"
	"github.com/postcardmijo/food/internal/models"
)

type createItemRequest struct {
	HallID            string  `json:"hall_id" binding:"required"`
	ItemName          string  `json:"item_name" binding:"required"`
	QuantityRemaining float64 `json:"quantity_remaining"`
}

type adjustRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (s *Server) inventoryEnabled(c *gin.Context) bool {
	if s.deps.Inventory == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Inventory is not configured"})
		return false
	}
	return true
}

// GetInventory lists a hall's current stock
func (s *Server) GetInventory(c *gin.Context) {
	if !s.inventoryEnabled(c) {
		return
	}
	items, err := s.deps.Inventory.Snapshot(c.Request.Context(), c.Param("hall"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	trigger := s.deps.Forecast.RestockTrigger
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"item":   item,
			"status": item.Status(trigger),
		})
	}
	c.JSON(http.StatusOK, out)
}

// CreateInventoryItem stocks a new item at a hall
func (s *Server) CreateInventoryItem(c *gin.Context) {
	if !s.inventoryEnabled(c) {
		return
	}

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.QuantityRemaining < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity_remaining must not be negative"})
		return
	}

	item := &models.InventoryItem{
		HallID:            req.HallID,
		ItemName:          req.ItemName,
		QuantityRemaining: req.QuantityRemaining,
	}
	if err := s.deps.Inventory.Create(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// AdjustInventory refills or removes stock of one item
func (s *Server) AdjustInventory(c *gin.Context) {
	if !s.inventoryEnabled(c) {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.deps.Inventory.Adjust(c.Request.Context(), id, req.Amount)
	if errors.Is(err, inventory.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetForecast projects when an item will run out
func (s *Server) GetForecast(c *gin.Context) {
	if !s.inventoryEnabled(c) {
		return
	}
	id, ok := itemID(c)
	if !ok {
		return
	}

	item, err := s.deps.Inventory.Get(c.Request.Context(), id)
	if errors.Is(err, inventory.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inventory.Project(*item, s.now(), s.deps.Forecast))
}

func itemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return 0, false
	}
	return uint(id), true
}
