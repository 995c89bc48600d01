package meals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postcardmijo/food/internal/models"
)

func TestAggregateBucketsUndatedMealsIntoToday(t *testing.T) {
	progress := Aggregate([]models.Meal{
		{ID: "legacy", Protein: 10},
		{ID: "dated", Protein: 5, Date: "2024-03-10"},
	}, "2024-03-10")

	require.Len(t, progress, 1)
	assert.Equal(t, 15.0, progress[0].TotalProtein)
	assert.Equal(t, 60.0, progress[0].TotalCalories)
}

func TestWindowCrossesMonthAndYearBoundaries(t *testing.T) {
	today := time.Date(2024, time.January, 2, 23, 30, 0, 0, time.UTC)

	points := Window(nil, today, 3)
	require.Len(t, points, 4)
	assert.Equal(t, []string{"2023-12-30", "2023-12-31", "2024-01-01", "2024-01-02"},
		[]string{points[0].Date, points[1].Date, points[2].Date, points[3].Date})
}

func TestWindowAcrossDaylightSavingChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	today := time.Date(2024, time.March, 12, 0, 30, 0, 0, loc)

	points := Window(nil, today, 4)
	require.Len(t, points, 5)
	assert.Equal(t, "2024-03-08", points[0].Date)
	assert.Equal(t, "2024-03-10", points[2].Date)
	assert.Equal(t, "2024-03-12", points[4].Date)
}

func TestWindowZeroDays(t *testing.T) {
	today := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

	points := Window([]models.DailyProgress{{Date: "2024-03-10", TotalCalories: 400}}, today, 0)
	require.Len(t, points, 1)
	assert.Equal(t, models.ProgressPoint{Date: "2024-03-10", Value: 400}, points[0])
}

func TestSummarizeEmpty(t *testing.T) {
	today := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, models.ProgressSummary{Days: 30}, Summarize(nil, today, 30))
}
