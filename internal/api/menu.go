package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postcardmijo/food/internal/assistant"
	"github.com/postcardmijo/food/internal/models"
	"github.com/postcardmijo/food/internal/monitoring"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

// GetMenu returns every hall's menu for ?date=YYYY-MM-DD (default today)
func (s *Server) GetMenu(c *gin.Context) {
	if s.deps.Menus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Menu source is not configured"})
		return
	}

	date := s.now()
	if raw := c.Query("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = d
	}

	m, err := s.deps.Menus.Get(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

// Chat answers a question with today's menu and the meal log as context
func (s *Server) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	if s.deps.Assistant == nil {
		s.recordChat(monitoring.ChatUnavailable)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": assistant.FallbackReply})
		return
	}

	ctx := c.Request.Context()
	var today *models.Menu
	if s.deps.Menus != nil {
		m, err := s.deps.Menus.Get(ctx, s.now())
		if err != nil {
			log.Printf("api: menu for chat context failed: %v", err)
		}
		today = m
	}

	reply, err := s.deps.Assistant.Ask(ctx, req.SessionID, req.Question, s.deps.Meals.RecentMeals(s.deps.MealContextLimit), today)
	if errors.Is(err, assistant.ErrEmptyQuestion) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("api: chat failed: %v", err)
		s.recordChat(monitoring.ChatFailed)
		c.JSON(http.StatusBadGateway, gin.H{"error": assistant.FallbackReply})
		return
	}

	s.recordChat(monitoring.ChatAnswered)
	c.JSON(http.StatusOK, reply)
}

// ResetChat forgets a conversation
func (s *Server) ResetChat(c *gin.Context) {
	if s.deps.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": assistant.FallbackReply})
		return
	}
	s.deps.Assistant.Reset(c.Param("session"))
	c.Status(http.StatusNoContent)
}

func (s *Server) recordChat(outcome string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ChatHandled(outcome)
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, raw, time.Local)
}

func validDate(raw string) bool {
	_, err := parseDate(raw)
	return err == nil
}
