package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/postcardmijo/food/internal/models"
)

const (
	// DefaultKey is the slot key the meal list is stored under
	DefaultKey = "@meals_storage"
	// DefaultWindow is the progress window used when a caller passes none
	DefaultWindow = 30
	// MaxWindow is the longest progress window served, about ten years
	MaxWindow = 3650

	writeQueueSize = 64
)

// ErrClosed is reported for writes requested after Close
var ErrClosed = errors.New("meal store closed")

// Clock abstracts time to keep date math deterministic in tests
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Observer is notified of store activity
type Observer interface {
	MealAdded()
	MealsDeleted(n int)
	Persisted(err error)
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used to resolve "today"
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithKey overrides the slot key
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithDefaultWindow overrides the window ProgressData uses for days <= 0
func WithDefaultWindow(days int) Option {
	return func(s *Store) {
		if days > 0 {
			s.window = days
		}
	}
}

// WithObserver attaches an activity observer
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

type writeRequest struct {
	payload []byte
	done    chan error
}

// Store owns the logged meals, newest first. Every mutation rewrites the
// full list to the slot through a single writer so writes land in mutation
// order. Nothing is written until Load has run, so an empty list can never
// clobber stored data.
type Store struct {
	slot     Slot
	key      string
	clock    Clock
	window   int
	observer Observer

	mu     sync.RWMutex
	meals  []models.Meal
	loaded bool
	closed bool

	writes  chan writeRequest
	stopped chan struct{}
}

// NewStore creates a store over slot and starts its writer
func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot:    slot,
		key:     DefaultKey,
		clock:   SystemClock{},
		window:  DefaultWindow,
		meals:   make([]models.Meal, 0),
		writes:  make(chan writeRequest, writeQueueSize),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.writeLoop()
	return s
}

// Load reads the stored meal list once. Meals added before Load are kept in
// front of the stored ones. A failed read still marks the store loaded; the
// in-memory list then becomes the source of truth.
func (s *Store) Load(ctx context.Context) error {
	stored, loadErr := s.read(ctx)
	if loadErr != nil {
		log.Printf("meals: load failed: %v", loadErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return loadErr
	}
	s.loaded = true

	pending := s.meals
	s.meals = make([]models.Meal, 0, len(pending)+len(stored))
	s.meals = append(s.meals, pending...)
	s.meals = append(s.meals, stored...)

	if len(pending) > 0 && loadErr == nil {
		s.persistLocked()
	}
	return loadErr
}

func (s *Store) read(ctx context.Context) ([]models.Meal, error) {
	raw, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var stored []models.Meal
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decoding stored meals: %w", err)
	}
	return stored, nil
}

// Loaded reports whether Load has run
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// AddMeal prepends meal, defaulting its date to today. The returned channel
// yields the outcome of the resulting write; callers may ignore it.
func (s *Store) AddMeal(meal models.Meal) <-chan error {
	if meal.Date == "" {
		meal.Date = s.Today()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.meals = append([]models.Meal{meal}, s.meals...)
	if s.observer != nil {
		s.observer.MealAdded()
	}
	return s.persistLocked()
}

// DeleteMeal removes every meal with the given id. Unknown ids are a no-op.
func (s *Store) DeleteMeal(id models.MealID) (int, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Meal, 0, len(s.meals))
	for _, m := range s.meals {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	removed := len(s.meals) - len(kept)
	s.meals = kept

	if s.observer != nil && removed > 0 {
		s.observer.MealsDeleted(removed)
	}
	return removed, s.persistLocked()
}

// Meals returns a copy of the logged meals, newest first
func (s *Store) Meals() []models.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Meal(nil), s.meals...)
}

// RecentMeals returns up to n of the newest meals
func (s *Store) RecentMeals(n int) []models.Meal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n < 0 || n > len(s.meals) {
		n = len(s.meals)
	}
	return append([]models.Meal(nil), s.meals[:n]...)
}

// Totals sums macronutrients across every logged meal
func (s *Store) Totals() models.MacroTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var totals models.MacroTotals
	for _, m := range s.meals {
		totals.Add(m)
	}
	return totals
}

// DailyProgress aggregates the meals per date, oldest first
func (s *Store) DailyProgress() []models.DailyProgress {
	today := s.Today()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Aggregate(s.meals, today)
}

// ProgressData returns days+1 gap-filled calorie points ending today.
// days <= 0 selects the default window; days above MaxWindow are clamped.
func (s *Store) ProgressData(days int) []models.ProgressPoint {
	return Window(s.DailyProgress(), s.clock.Now(), s.windowDays(days))
}

// Summarize returns the headline statistics of the trailing days window
func (s *Store) Summarize(days int) models.ProgressSummary {
	return Summarize(s.DailyProgress(), s.clock.Now(), s.windowDays(days))
}

func (s *Store) windowDays(days int) int {
	switch {
	case days <= 0:
		return s.window
	case days > MaxWindow:
		return MaxWindow
	default:
		return days
	}
}

// Close stops accepting writes and waits for queued writes to finish
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.writes)
	}
	s.mu.Unlock()

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Today returns the date new meals are stamped with
func (s *Store) Today() string {
	return s.clock.Now().Format(models.DateLayout)
}

// persistLocked snapshots the list and queues a write. Callers hold s.mu,
// which keeps queue order equal to mutation order.
func (s *Store) persistLocked() <-chan error {
	done := make(chan error, 1)
	switch {
	case s.closed:
		done <- ErrClosed
		close(done)
		return done
	case !s.loaded:
		close(done)
		return done
	}

	payload, err := json.Marshal(s.meals)
	if err != nil {
		log.Printf("meals: encoding meals failed: %v", err)
		done <- err
		close(done)
		return done
	}

	s.writes <- writeRequest{payload: payload, done: done}
	return done
}

func (s *Store) writeLoop() {
	defer close(s.stopped)

	for req := range s.writes {
		err := s.slot.Set(context.Background(), s.key, string(req.payload))
		if err != nil {
			log.Printf("meals: save failed: %v", err)
		}
		if s.observer != nil {
			s.observer.Persisted(err)
		}
		req.done <- err
		close(req.done)
	}
}
