package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/postcardmijo/food/internal/menu"
	"github.com/postcardmijo/food/internal/models"
)

// ErrNoItemsSelected is returned when a selection carries no energy
var ErrNoItemsSelected = errors.New("select at least one food item")

const syncTimeout = 30 * time.Second

// DefaultHallMapping maps menu hall ids onto inventory hall ids
func DefaultHallMapping() map[string]string {
	return map[string]string{
		"dining-hall-1": "bolton_dining",
		"dining-hall-2": "oglethorpe_dining",
		"dining-hall-3": "snelling_dining",
		"dining-hall-4": "niche_dining",
		"dining-hall-5": "village_summit",
	}
}

// MenuSource returns the menu for a date
type MenuSource interface {
	Get(ctx context.Context, date time.Time) (*models.Menu, error)
}

// MealAdder receives the logged meal
type MealAdder interface {
	AddMeal(meal models.Meal) <-chan error
}

// ConsumptionRecorder books servings against hall inventory
type ConsumptionRecorder interface {
	RecordConsumption(ctx context.Context, hallID, itemName string, servings float64) (*models.InventoryItem, error)
}

// Selection is what the user picked from a station
type Selection struct {
	Date     time.Time `json:"-"`
	HallID   string    `json:"hall_id" binding:"required"`
	Meal     string    `json:"meal" binding:"required"`
	Station  string    `json:"station" binding:"required"`
	Items    []string  `json:"items"`
	Servings float64   `json:"servings"`
}

// Totals are the scaled macros of a selection
type Totals struct {
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
	Calories int `json:"calories"`
}

// Tracker turns menu selections into logged meals and keeps hall inventory
// in step with what was eaten.
type Tracker struct {
	menus     MenuSource
	meals     MealAdder
	inventory ConsumptionRecorder
	halls     map[string]string
	now       func() time.Time

	wg sync.WaitGroup
}

// New creates a tracker. inventory may be nil to skip stock sync.
func New(menus MenuSource, meals MealAdder, inventory ConsumptionRecorder, hallMapping map[string]string) *Tracker {
	if hallMapping == nil {
		hallMapping = DefaultHallMapping()
	}
	return &Tracker{
		menus:     menus,
		meals:     meals,
		inventory: inventory,
		halls:     hallMapping,
		now:       time.Now,
	}
}

// LogSelection adds the selection as a meal and starts the inventory sync
func (t *Tracker) LogSelection(ctx context.Context, sel Selection) (models.Meal, error) {
	if sel.Servings <= 0 {
		sel.Servings = 1
	}
	if sel.Date.IsZero() {
		sel.Date = t.now()
	}

	m, err := t.menus.Get(ctx, sel.Date)
	if err != nil {
		return models.Meal{}, fmt.Errorf("loading menu: %w", err)
	}
	foods, ok := m.Station(sel.HallID, sel.Meal, sel.Station)
	if !ok {
		return models.Meal{}, fmt.Errorf("%w: %s/%s/%s", menu.ErrUnknownHall, sel.HallID, sel.Meal, sel.Station)
	}

	selected := Selected(foods, sel.Items)
	totals := Sum(selected, sel.Servings)
	if totals.Calories == 0 {
		return models.Meal{}, ErrNoItemsSelected
	}

	names := make([]string, 0, len(selected))
	for _, f := range selected {
		if f.Name != "" {
			names = append(names, f.Name)
		}
	}

	meal := models.Meal{
		ID:      models.MealID(uuid.NewString()),
		Title:   title(names, sel.Station, hallName(m, sel.HallID)),
		Protein: float64(totals.Protein),
		Carbs:   float64(totals.Carbs),
		Fat:     float64(totals.Fat),
		Date:    sel.Date.Format(models.DateLayout),
	}
	t.meals.AddMeal(meal)

	if t.inventory != nil && len(names) > 0 {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.sync(sel.HallID, names, sel.Servings)
		}()
	}
	return meal, nil
}

// Wait blocks until every pending inventory sync has finished
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) sync(menuHall string, names []string, servings float64) {
	hall, ok := t.halls[menuHall]
	if !ok {
		log.Printf("tracker: no inventory mapping for hall %s", menuHall)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	for _, name := range names {
		if _, err := t.inventory.RecordConsumption(ctx, hall, name, servings); err != nil {
			log.Printf("tracker: failed to sync %s at %s: %v", name, hall, err)
		}
	}
}

// Selected returns the station foods whose names were picked, in menu order
func Selected(foods []models.MenuFood, names []string) []models.MenuFood {
	picked := make(map[string]struct{}, len(names))
	for _, n := range names {
		picked[n] = struct{}{}
	}

	var out []models.MenuFood
	for _, f := range foods {
		if _, ok := picked[f.Name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Sum adds up foods and scales them by servings
func Sum(foods []models.MenuFood, servings float64) Totals {
	var p, c, f, kcal float64
	for _, food := range foods {
		p += food.Nutrition.Protein
		c += food.Nutrition.Carbs
		f += food.Nutrition.Fat
		kcal += food.Nutrition.Calories()
	}
	return Totals{
		Protein:  round(p * servings),
		Carbs:    round(c * servings),
		Fat:      round(f * servings),
		Calories: round(kcal * servings),
	}
}

func title(names []string, station, hall string) string {
	switch {
	case len(names) > 0:
		return strings.Join(names, ", ")
	case station != "":
		return fmt.Sprintf("%s (%s)", station, hall)
	default:
		return "Custom Meal"
	}
}

func hallName(m *models.Menu, id string) string {
	if h, ok := m.Halls[id]; ok && h.Name != "" {
		return h.Name
	}
	return id
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
