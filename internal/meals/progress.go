package meals

import (
	"math"
	"sort"
	"time"

	"github.com/postcardmijo/food/internal/models"
)

// Aggregate buckets meals by date. Undated meals fall into today.
// The result is ordered oldest first.
func Aggregate(meals []models.Meal, today string) []models.DailyProgress {
	byDate := make(map[string]*models.DailyProgress)
	for _, meal := range meals {
		date := meal.Date
		if date == "" {
			date = today
		}

		day, ok := byDate[date]
		if !ok {
			day = &models.DailyProgress{Date: date}
			byDate[date] = day
		}
		day.TotalProtein += meal.Protein
		day.TotalCarbs += meal.Carbs
		day.TotalFat += meal.Fat
		day.TotalCalories += meal.Calories()
	}

	progress := make([]models.DailyProgress, 0, len(byDate))
	for _, day := range byDate {
		progress = append(progress, *day)
	}
	// YYYY-MM-DD sorts lexically in calendar order
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Date < progress[j].Date
	})
	return progress
}

// Window returns days+1 contiguous points from today-days through today,
// each carrying that day's total calories or zero. days is clamped to
// [0, MaxWindow].
func Window(progress []models.DailyProgress, today time.Time, days int) []models.ProgressPoint {
	days = max(0, min(days, MaxWindow))
	calories := make(map[string]float64, len(progress))
	for _, day := range progress {
		calories[day.Date] = day.TotalCalories
	}

	start := startOfDay(today).AddDate(0, 0, -days)
	points := make([]models.ProgressPoint, 0, days+1)
	for d := start; len(points) <= days; d = d.AddDate(0, 0, 1) {
		date := d.Format(models.DateLayout)
		points = append(points, models.ProgressPoint{Date: date, Value: calories[date]})
	}
	return points
}

// Summarize computes the headline statistics over the trailing window of
// days ending today.
func Summarize(progress []models.DailyProgress, today time.Time, days int) models.ProgressSummary {
	days = min(days, MaxWindow)
	summary := models.ProgressSummary{Days: days}
	if days <= 0 {
		return summary
	}

	from := startOfDay(today).AddDate(0, 0, -(days - 1)).Format(models.DateLayout)
	to := today.Format(models.DateLayout)

	var (
		calorieSum, proteinSum float64
		calorieDays, logged    int
		minCal, maxCal         = math.Inf(1), 0.0
	)
	for _, day := range progress {
		if day.Date < from || day.Date > to {
			continue
		}
		logged++
		proteinSum += day.TotalProtein
		if day.TotalCalories > 0 {
			calorieDays++
			calorieSum += day.TotalCalories
			minCal = math.Min(minCal, day.TotalCalories)
			maxCal = math.Max(maxCal, day.TotalCalories)
		}
	}

	summary.TotalProtein = roundInt(proteinSum)
	if logged > 0 {
		summary.AvgProtein = roundInt(proteinSum / float64(logged))
	}
	if calorieDays > 0 {
		summary.AvgCalories = roundInt(calorieSum / float64(calorieDays))
		summary.MinCalories = roundInt(minCal)
		summary.MaxCalories = roundInt(maxCal)
	}
	return summary
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}
