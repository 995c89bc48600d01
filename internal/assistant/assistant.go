package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/prompts"

	"github.com/postcardmijo/food/internal/models"
)

// FallbackReply is shown to the user when the model cannot be reached
const FallbackReply = "Something went wrong. Please check your API key or internet connection."

// ErrEmptyQuestion is returned for blank questions
var ErrEmptyQuestion = errors.New("question is empty")

const systemTemplate = `You are a friendly, science-based nutrition assistant.
Answer user questions using ONLY the following food items from today's dining halls.
Do NOT make up items that aren't listed.
Keep answers safe, short, and practical.

{{.food_context}}

Use the user's logged meals below when they ask about their intake or progress.
Calories use 4 kcal per gram of protein and carbohydrate and 9 kcal per gram of fat.

{{.meal_context}}`

// Options tunes generation and context size
type Options struct {
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	MealContextLimit int     `yaml:"meal_context_limit"`
	MemoryWindow     int     `yaml:"memory_window"`
	MaxSessions      int     `yaml:"max_sessions"`
}

// DefaultOptions mirrors the mobile client's generation settings
func DefaultOptions() Options {
	return Options{
		Temperature:      0.7,
		MaxTokens:        1024,
		MealContextLimit: 20,
		MemoryWindow:     5,
		MaxSessions:      1000,
	}
}

// Reply is the answer to one question within a session
type Reply struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Assistant answers nutrition questions with the user's meals and today's
// menu as context. Each session keeps a bounded conversation window.
type Assistant struct {
	model  llms.Model
	prompt prompts.PromptTemplate
	opts   Options

	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

// session serializes the turns of one conversation
type session struct {
	mu       sync.Mutex
	history  *memory.ConversationWindowBuffer
	lastUsed time.Time
}

// New creates an assistant over model
func New(model llms.Model, opts Options) *Assistant {
	defaults := DefaultOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	if opts.MemoryWindow <= 0 {
		opts.MemoryWindow = defaults.MemoryWindow
	}
	if opts.MealContextLimit == 0 {
		opts.MealContextLimit = defaults.MealContextLimit
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaults.MaxSessions
	}

	return &Assistant{
		model:    model,
		prompt:   prompts.NewPromptTemplate(systemTemplate, []string{"food_context", "meal_context"}),
		opts:     opts,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Ask answers question in session. An empty session id starts a new session.
func (a *Assistant) Ask(ctx context.Context, sessionID, question string, meals []models.Meal, menu *models.Menu) (Reply, error) {
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := a.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	history := sess.history

	system, err := a.prompt.Format(map[string]any{
		"food_context": menu.Describe(),
		"meal_context": MealContext(meals, a.opts.MealContextLimit),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("formatting system prompt: %w", err)
	}

	vars, err := history.LoadMemoryVariables(ctx, map[string]any{})
	if err != nil {
		return Reply{}, fmt.Errorf("loading memory variables: %w", err)
	}
	past, _ := vars[history.MemoryKey].([]llms.ChatMessage)

	messages := make([]llms.MessageContent, 0, len(past)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, msg := range past {
		messages = append(messages, llms.TextParts(msg.GetType(), msg.GetContent()))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	resp, err := a.model.GenerateContent(ctx, messages,
		llms.WithTemperature(a.opts.Temperature),
		llms.WithMaxTokens(a.opts.MaxTokens),
	)
	if err != nil {
		return Reply{}, fmt.Errorf("generating reply: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Reply{}, errors.New("empty response from model")
	}
	text := resp.Choices[0].Content

	err = history.SaveContext(ctx, map[string]any{"input": question}, map[string]any{"output": text})
	if err != nil {
		log.Printf("assistant: saving to memory failed: %v", err)
	}

	return Reply{SessionID: sessionID, Text: text}, nil
}

// Reset forgets a session's conversation
func (a *Assistant) Reset(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

func (a *Assistant) session(id string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, ok := a.sessions[id]
	if !ok {
		if len(a.sessions) >= a.opts.MaxSessions {
			a.evictOldestLocked()
		}
		sess = &session{
			history: memory.NewConversationWindowBuffer(a.opts.MemoryWindow, memory.WithReturnMessages(true)),
		}
		a.sessions[id] = sess
	}
	sess.lastUsed = a.now()
	return sess
}

// evictOldestLocked drops the least recently used session
func (a *Assistant) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
	)
	for id, sess := range a.sessions {
		if oldest == "" || sess.lastUsed.Before(at) {
			oldest, at = id, sess.lastUsed
		}
	}
	delete(a.sessions, oldest)
}
