package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postcardmijo/food/internal/assistant"
	"github.com/postcardmijo/food/internal/inventory"
	"github.com/postcardmijo/food/internal/meals"
	"github.com/postcardmijo/food/internal/models"
	"github.com/postcardmijo/food/internal/monitoring"
	"github.com/postcardmijo/food/internal/tracker"
)

// Asker answers nutrition questions
type Asker interface {
	Ask(ctx context.Context, sessionID, question string, meals []models.Meal, menu *models.Menu) (assistant.Reply, error)
	Reset(sessionID string)
}

// ChatRecorder counts chat outcomes
type ChatRecorder interface {
	ChatHandled(outcome string)
}

// Deps are the components the HTTP surface serves. Assistant, Inventory and
// Metrics may be nil.
type Deps struct {
	Meals     *meals.Store
	Menus     tracker.MenuSource
	Tracker   *tracker.Tracker
	Assistant Asker
	Inventory *inventory.Service
	Forecast  inventory.ForecastParams
	Monitor   *monitoring.Monitor
	Metrics   ChatRecorder

	// MealContextLimit bounds how many recent meals the assistant sees
	MealContextLimit int
}

// Server represents the dining hall HTTP API
type Server struct {
	Router *gin.Engine

	deps Deps
	now  func() time.Time
}

// NewServer creates the router and registers every route
func NewServer(deps Deps) *Server {
	if deps.Monitor == nil {
		deps.Monitor = monitoring.NewMonitor()
	}
	if deps.MealContextLimit <= 0 {
		deps.MealContextLimit = assistant.DefaultOptions().MealContextLimit
	}

	s := &Server{
		Router: gin.Default(),
		deps:   deps,
		now:    time.Now,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.Health)

	v1 := s.Router.Group("/api/v1")
	{
		// Meal log
		v1.GET("/meals", s.ListMeals)
		v1.POST("/meals", s.AddMeal)
		v1.DELETE("/meals/:id", s.DeleteMeal)
		v1.GET("/meals/totals", s.GetTotals)
		v1.POST("/meals/log", s.LogSelection)

		// Progress
		v1.GET("/progress", s.GetProgress)
		v1.GET("/progress/daily", s.GetDailyProgress)
		v1.GET("/progress/summary", s.GetSummary)

		// Menu and assistant
		v1.GET("/menu", s.GetMenu)
		v1.POST("/chat", s.Chat)
		v1.DELETE("/chat/:session", s.ResetChat)

		// Inventory
		v1.GET("/inventory/:hall", s.GetInventory)
		v1.POST("/inventory/items", s.CreateInventoryItem)
		v1.POST("/inventory/items/:id/adjust", s.AdjustInventory)
		v1.GET("/inventory/items/:id/forecast", s.GetForecast)
	}

	s.Router.GET("/ws/inventory/:hall", s.InventoryFeed)
}

// Health reports component status
func (s *Server) Health(c *gin.Context) {
	health := s.deps.Monitor.Health(c.Request.Context())
	code := http.StatusOK
	if health.Status == monitoring.StatusDown {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}
