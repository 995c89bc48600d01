package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/postcardmijo/food/internal/models"
)

const (
	historyHours = 4
	// MaxForecastHours bounds how far ahead a projection is drawn
	MaxForecastHours = 48
)

// ForecastParams tunes the burn-rate extrapolation
type ForecastParams struct {
	OpeningHour     int     `yaml:"opening_hour"`
	DefaultBurnRate float64 `yaml:"default_burn_rate"`
	RestockTrigger  float64 `yaml:"restock_trigger"`
}

// DefaultForecastParams assumes an 8 AM opening
func DefaultForecastParams() ForecastParams {
	return ForecastParams{
		OpeningHour:     8,
		DefaultBurnRate: 5,
		RestockTrigger:  20,
	}
}

// ForecastPoint is one hourly sample. Stock is set for the past and now,
// Prediction for now and the future.
type ForecastPoint struct {
	Time       string   `json:"time"`
	Stock      *float64 `json:"stock"`
	Prediction *float64 `json:"prediction"`
}

// Forecast is a linear run-out projection of one item
type Forecast struct {
	ItemName       string          `json:"item_name"`
	CurrentStock   float64         `json:"current_stock"`
	BurnRate       float64         `json:"burn_rate"`
	HoursToEmpty   float64         `json:"hours_to_empty"`
	Urgent         bool            `json:"urgent"`
	EmptySoon      bool            `json:"empty_soon"`
	RestockTrigger float64         `json:"restock_trigger"`
	Status         string          `json:"status"`
	Points         []ForecastPoint `json:"points"`
}

// Project extrapolates today's consumption rate to the moment the item runs
// out. The rate is consumed-today over hours open (at least one); with nothing
// consumed yet the default rate is assumed.
func Project(item models.InventoryItem, now time.Time, p ForecastParams) Forecast {
	hoursOpen := math.Max(1, float64(now.Hour()-p.OpeningHour))

	burnRate := p.DefaultBurnRate
	if burnRate <= 0 {
		burnRate = DefaultForecastParams().DefaultBurnRate
	}
	if item.QuantityConsumedToday > 0 {
		burnRate = item.QuantityConsumedToday / hoursOpen
	}

	stock := item.QuantityRemaining
	hoursToEmpty := stock / burnRate

	points := make([]ForecastPoint, 0, historyHours+1+MaxForecastHours)
	for i := historyHours; i >= 1; i-- {
		past := roundHalfUp(stock + float64(i)*burnRate)
		points = append(points, ForecastPoint{Time: fmt.Sprintf("-%dh", i), Stock: &past})
	}

	current := stock
	points = append(points, ForecastPoint{Time: "Now", Stock: &current, Prediction: &current})

	limit := int(math.Min(math.Ceil(hoursToEmpty)+2, MaxForecastHours))
	for i := 1; i <= limit; i++ {
		predicted := stock - float64(i)*burnRate
		value := 0.0
		if predicted > 0 {
			value = roundHalfUp(predicted)
		}
		points = append(points, ForecastPoint{Time: fmt.Sprintf("+%dh", i), Prediction: &value})
		if predicted <= 0 {
			break
		}
	}

	return Forecast{
		ItemName:       item.ItemName,
		CurrentStock:   stock,
		BurnRate:       burnRate,
		HoursToEmpty:   hoursToEmpty,
		Urgent:         hoursToEmpty < 2,
		EmptySoon:      hoursToEmpty < 1,
		RestockTrigger: p.RestockTrigger,
		Status:         string(item.Status(p.RestockTrigger)),
		Points:         points,
	}
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
