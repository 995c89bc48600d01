package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Nutrition holds the rounded per-serving macronutrients published for a food
type Nutrition struct {
	Protein float64 `json:"g_protein"`
	Carbs   float64 `json:"g_carbs"`
	Fat     float64 `json:"g_fat"`
}

// Calories returns the Atwater energy of one serving
func (n Nutrition) Calories() float64 {
	return Calories(n.Protein, n.Carbs, n.Fat)
}

// MenuFood is one dish served at a station
type MenuFood struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DietaryInfo []string  `json:"dietary_info"`
	Nutrition   Nutrition `json:"nutrition"`
}

// Stations maps station display names to their dishes
type Stations map[string][]MenuFood

// Hall is one dining hall's menu for a day, keyed by meal type
type Hall struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Meals map[string]Stations `json:"meals"`
}

// Menu is the flattened menu of every dining hall for one date
type Menu struct {
	Date      string          `json:"date"`
	UpdatedAt time.Time       `json:"updated_at"`
	Halls     map[string]Hall `json:"dining_halls"`
}

// Station returns the dishes served at a hall/meal/station
func (m *Menu) Station(hallID, meal, station string) ([]MenuFood, bool) {
	if m == nil {
		return nil, false
	}
	hall, ok := m.Halls[hallID]
	if !ok {
		return nil, false
	}
	foods, ok := hall.Meals[meal][station]
	return foods, ok
}

// Describe renders the menu as the plain-text food context used in prompts
func (m *Menu) Describe() string {
	if m == nil || len(m.Halls) == 0 {
		return "No food items available today."
	}

	var b strings.Builder
	b.WriteString("Today's available food items:\n\n")
	for _, hallID := range sortedKeys(m.Halls) {
		hall := m.Halls[hallID]
		name := hall.Name
		if name == "" {
			name = hallID
		}
		fmt.Fprintf(&b, "Dining Hall: %s\n", name)
		for _, meal := range sortedKeys(hall.Meals) {
			fmt.Fprintf(&b, "  Meal: %s\n", meal)
			stations := hall.Meals[meal]
			for _, station := range sortedKeys(stations) {
				fmt.Fprintf(&b, "    Station: %s\n", station)
				for _, food := range stations[station] {
					dietary := ""
					if len(food.DietaryInfo) > 0 {
						dietary = " [" + strings.Join(food.DietaryInfo, ", ") + "]"
					}
					description := food.Description
					if description == "" {
						description = "No description"
					}
					fmt.Fprintf(&b, "      - %s%s: %s\n", food.Name, dietary, description)
				}
			}
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
