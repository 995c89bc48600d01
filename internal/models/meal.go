package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for meal dates and progress keys.
const DateLayout = "2006-01-02"

// Atwater factors, kcal per gram.
const (
	CaloriesPerGramProtein = 4
	CaloriesPerGramCarbs   = 4
	CaloriesPerGramFat     = 9
)

// MealID identifies a logged meal. Older clients stored numeric ids, so both
// JSON numbers and strings are accepted on decode; it always encodes as a string.
type MealID string

// UnmarshalJSON accepts a JSON string or number.
func (id *MealID) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case string:
		*id = MealID(t)
	case json.Number:
		*id = MealID(t.String())
	default:
		return fmt.Errorf("meal id must be a string or number, got %s", data)
	}
	return nil
}

// Meal is one logged eating event
type Meal struct {
	ID      MealID  `json:"id"`
	Title   string  `json:"title"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Date    string  `json:"date,omitempty"`
}

// Calories returns the Atwater energy of the meal
func (m Meal) Calories() float64 {
	return Calories(m.Protein, m.Carbs, m.Fat)
}

// Calories converts macronutrient grams to kcal.
func Calories(protein, carbs, fat float64) float64 {
	return protein*CaloriesPerGramProtein + carbs*CaloriesPerGramCarbs + fat*CaloriesPerGramFat
}

// DailyProgress aggregates every meal sharing a date
type DailyProgress struct {
	Date          string  `json:"date"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalFat      float64 `json:"totalFat"`
	TotalCalories float64 `json:"totalCalories"`
}

// ProgressPoint is one day of a gap-filled calorie series
type ProgressPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MacroTotals sums macronutrients across a set of meals
type MacroTotals struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

// Add accumulates a meal into the totals
func (t *MacroTotals) Add(m Meal) {
	t.Protein += m.Protein
	t.Carbs += m.Carbs
	t.Fat += m.Fat
	t.Calories += m.Calories()
}

// ProgressSummary holds the headline statistics of a trailing window.
// Calorie figures only consider days with calories logged.
type ProgressSummary struct {
	Days         int `json:"days"`
	AvgCalories  int `json:"avgCalories"`
	MaxCalories  int `json:"maxCalories"`
	MinCalories  int `json:"minCalories"`
	TotalProtein int `json:"totalProtein"`
	AvgProtein   int `json:"avgProtein"`
}

// StorageSlot is a single durable key-value pair
type StorageSlot struct {
	Key       string `gorm:"column:slot_key;primary_key"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName sets the table name for StorageSlot
func (StorageSlot) TableName() string {
	return "storage_slots"
}
