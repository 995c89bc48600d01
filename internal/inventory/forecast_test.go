package inventory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postcardmijo/food/internal/models"
)

func at(hour int) time.Time {
	return time.Date(2024, time.March, 10, hour, 15, 0, 0, time.UTC)
}

func TestProjectUsesTodaysBurnRate(t *testing.T) {
	item := models.InventoryItem{ItemName: "Pizza", QuantityRemaining: 30, QuantityConsumedToday: 40}

	f := Project(item, at(12), DefaultForecastParams())

	assert.Equal(t, 10.0, f.BurnRate)
	assert.Equal(t, 3.0, f.HoursToEmpty)
	assert.False(t, f.Urgent)
	assert.Equal(t, string(models.StatusInStock), f.Status)

	require.Len(t, f.Points, 4+1+3)
	assert.Equal(t, "-4h", f.Points[0].Time)
	assert.Equal(t, 70.0, *f.Points[0].Stock)
	assert.Nil(t, f.Points[0].Prediction)

	now := f.Points[4]
	assert.Equal(t, "Now", now.Time)
	assert.Equal(t, 30.0, *now.Stock)
	assert.Equal(t, 30.0, *now.Prediction)

	assert.Equal(t, "+1h", f.Points[5].Time)
	assert.Equal(t, 20.0, *f.Points[5].Prediction)
	assert.Nil(t, f.Points[5].Stock)
	assert.Equal(t, 0.0, *f.Points[7].Prediction)
}

func TestProjectBeforeOpeningCountsOneHour(t *testing.T) {
	item := models.InventoryItem{QuantityRemaining: 15, QuantityConsumedToday: 12}

	f := Project(item, at(7), DefaultForecastParams())

	assert.Equal(t, 12.0, f.BurnRate)
	assert.InDelta(t, 1.25, f.HoursToEmpty, 1e-9)
	assert.True(t, f.Urgent)
	assert.False(t, f.EmptySoon)
	assert.Equal(t, string(models.StatusLow), f.Status)
}

func TestProjectDefaultsBurnRateWhenNothingConsumed(t *testing.T) {
	item := models.InventoryItem{QuantityRemaining: 4}

	f := Project(item, at(15), DefaultForecastParams())

	assert.Equal(t, 5.0, f.BurnRate)
	assert.True(t, f.EmptySoon)
	last := f.Points[len(f.Points)-1]
	assert.Equal(t, "+1h", last.Time)
	assert.Equal(t, 0.0, *last.Prediction)
}

func TestProjectEmptyItem(t *testing.T) {
	f := Project(models.InventoryItem{}, at(10), ForecastParams{OpeningHour: 8})

	assert.Equal(t, 5.0, f.BurnRate)
	assert.Equal(t, string(models.StatusOutOfStock), f.Status)
	assert.Len(t, f.Points, 4+1+1)
}

func TestProjectStopsAtHorizon(t *testing.T) {
	item := models.InventoryItem{ItemName: "Rice", QuantityRemaining: 1e12, QuantityConsumedToday: 1}

	f := Project(item, at(9), DefaultForecastParams())

	require.Len(t, f.Points, 4+1+MaxForecastHours)
	last := f.Points[len(f.Points)-1]
	assert.Equal(t, fmt.Sprintf("+%dh", MaxForecastHours), last.Time)
	assert.Greater(t, *last.Prediction, 0.0)
	assert.Greater(t, f.HoursToEmpty, float64(MaxForecastHours))
}
