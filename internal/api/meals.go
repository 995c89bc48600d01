package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/postcardmijo/food/internal/meals"
	"github.com/postcardmijo/food/internal/menu"
	"github.com/postcardmijo/food/internal/models"
	"github.com/postcardmijo/food/internal/tracker"
)

type addMealRequest struct {
	ID      models.MealID `json:"id"`
	Title   string        `json:"title" binding:"required"`
	Protein float64       `json:"protein"`
	Carbs   float64       `json:"carbs"`
	Fat     float64       `json:"fat"`
	Date    string        `json:"date"`
}

// ListMeals returns the meal log, newest first
func (s *Server) ListMeals(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Meals.Meals())
}

// AddMeal logs a meal. Missing ids are generated and missing dates are today.
func (s *Server) AddMeal(c *gin.Context) {
	var req addMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date != "" && !validDate(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	meal := models.Meal{
		ID:      req.ID,
		Title:   req.Title,
		Protein: req.Protein,
		Carbs:   req.Carbs,
		Fat:     req.Fat,
		Date:    req.Date,
	}
	if meal.ID == "" {
		meal.ID = models.MealID(uuid.NewString())
	}
	if meal.Date == "" {
		meal.Date = s.deps.Meals.Today()
	}

	s.deps.Meals.AddMeal(meal)
	c.JSON(http.StatusCreated, meal)
}

// DeleteMeal removes every meal with the given id
func (s *Server) DeleteMeal(c *gin.Context) {
	removed, _ := s.deps.Meals.DeleteMeal(models.MealID(c.Param("id")))
	if removed == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Meal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// GetTotals sums macros over the whole log
func (s *Server) GetTotals(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Meals.Totals())
}

// LogSelection logs a meal picked from a menu station
func (s *Server) LogSelection(c *gin.Context) {
	if s.deps.Tracker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Menu logging is not configured"})
		return
	}

	var sel tracker.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if date := c.Query("date"); date != "" {
		d, err := parseDate(date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		sel.Date = d
	}

	meal, err := s.deps.Tracker.LogSelection(c.Request.Context(), sel)
	switch {
	case errors.Is(err, tracker.ErrNoItemsSelected):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, menu.ErrUnknownHall):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, meal)
	}
}

// GetDailyProgress returns one entry per logged date, oldest first
func (s *Server) GetDailyProgress(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Meals.DailyProgress())
}

// GetProgress returns the gap-filled calorie series for ?days=N
func (s *Server) GetProgress(c *gin.Context) {
	days, ok := daysParam(c, 0)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.deps.Meals.ProgressData(days))
}

// GetSummary returns the headline statistics for ?days=N (default 7)
func (s *Server) GetSummary(c *gin.Context) {
	days, ok := daysParam(c, 7)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.deps.Meals.Summarize(days))
}

func daysParam(c *gin.Context, def int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 || days > meals.MaxWindow {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("days must be an integer between 0 and %d", meals.MaxWindow)})
		return 0, false
	}
	return days, true
}
