package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/postcardmijo/food/internal/models"
)

// MealContext summarizes up to limit of the newest meals grouped by date,
// oldest date first, with per-day macro subtotals and calorie totals.
func MealContext(meals []models.Meal, limit int) string {
	if limit >= 0 && len(meals) > limit {
		meals = meals[:limit]
	}
	if len(meals) == 0 {
		return "The user has not logged any meals yet."
	}

	byDate := make(map[string][]models.Meal)
	for _, m := range meals {
		byDate[m.Date] = append(byDate[m.Date], m)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var b strings.Builder
	fmt.Fprintf(&b, "The user's %d most recent logged meals:\n", len(meals))
	for _, date := range dates {
		label := date
		if label == "" {
			label = "undated"
		}
		fmt.Fprintf(&b, "\n%s\n", label)

		var day models.MacroTotals
		for _, m := range byDate[date] {
			day.Add(m)
			fmt.Fprintf(&b, "  - %s: %sg protein, %sg carbs, %sg fat (%s kcal)\n",
				title(m), grams(m.Protein), grams(m.Carbs), grams(m.Fat), grams(m.Calories()))
		}
		fmt.Fprintf(&b, "  Day total: %sg protein, %sg carbs, %sg fat, %s kcal\n",
			grams(day.Protein), grams(day.Carbs), grams(day.Fat), grams(day.Calories))
	}
	return b.String()
}

func title(m models.Meal) string {
	if m.Title == "" {
		return "Untitled meal"
	}
	return m.Title
}

func grams(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
