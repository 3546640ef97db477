package utils

import (
	"math"

	"github.com/sovushik/SparkyFitness/internal/food"
)

// EntryTotals scales a food's per-serving macros to the logged quantity.
// Quantity is in the food's serving unit, so 250 g of a 100 g serving is
// 2.5 servings.
func EntryTotals(f *food.Food, quantity float64) food.Totals {
	servings := 0.0
	if f.ServingSize > 0 {
		servings = quantity / f.ServingSize
	}

	return food.Totals{
		Calories: f.Calories * servings,
		ProteinG: f.ProteinG * servings,
		CarbsG:   f.CarbsG * servings,
		FatG:     f.FatG * servings,
	}
}

// DayTotals sums the macros of a day's diary entries.
func DayTotals(entries []*food.EntryWithFood) food.Totals {
	var totals food.Totals
	for _, e := range entries {
		t := EntryTotals(&e.Food, e.Quantity)
		totals.Calories += t.Calories
		totals.ProteinG += t.ProteinG
		totals.CarbsG += t.CarbsG
		totals.FatG += t.FatG
	}
	return totals
}

// CaloriesForDuration derives a burn estimate from an exercise's hourly
// rate, rounded to the nearest whole calorie.
func CaloriesForDuration(caloriesPerHour, minutes float64) float64 {
	if caloriesPerHour <= 0 || minutes <= 0 {
		return 0
	}
	return math.Round(caloriesPerHour * minutes / 60)
}
