package food

import (
	"time"

	"github.com/google/uuid"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnacks    = "snacks"
)

// ValidMealType reports whether s is one of the four diary meal slots.
func ValidMealType(s string) bool {
	switch s {
	case MealBreakfast, MealLunch, MealDinner, MealSnacks:
		return true
	}
	return false
}

// Food is a catalog item. OwnerID is nil for the shared global catalog.
type Food struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	OwnerID          *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	Name             string     `json:"name" db:"name"`
	Brand            string     `json:"brand,omitempty" db:"brand"`
	Calories         float64    `json:"calories" db:"calories"`
	ProteinG         float64    `json:"protein_g" db:"protein_g"`
	CarbsG           float64    `json:"carbs_g" db:"carbs_g"`
	FatG             float64    `json:"fat_g" db:"fat_g"`
	ServingSize      float64    `json:"serving_size" db:"serving_size"`
	ServingUnit      string     `json:"serving_unit" db:"serving_unit"`
	IsCustom         bool       `json:"is_custom" db:"is_custom"`
	SharedWithPublic bool       `json:"shared_with_public" db:"shared_with_public"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

type Entry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	FoodID    uuid.UUID `json:"food_id" db:"food_id"`
	MealType  string    `json:"meal_type" db:"meal_type"`
	Quantity  float64   `json:"quantity" db:"quantity"`
	Unit      string    `json:"unit" db:"unit"`
	EntryDate time.Time `json:"entry_date" db:"entry_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EntryWithFood joins a diary entry with its food snapshot for day views.
type EntryWithFood struct {
	Entry
	Food Food `json:"food"`
}

// Totals are summed macros for a set of diary entries.
type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// DayLog is one diary day: the entries plus their totals.
type DayLog struct {
	Entries []*EntryWithFood `json:"entries"`
	Totals  Totals           `json:"totals"`
}

type CreateFoodRequest struct {
	Name             string  `json:"name"`
	Brand            string  `json:"brand"`
	Calories         float64 `json:"calories"`
	ProteinG         float64 `json:"protein_g"`
	CarbsG           float64 `json:"carbs_g"`
	FatG             float64 `json:"fat_g"`
	ServingSize      float64 `json:"serving_size"`
	ServingUnit      string  `json:"serving_unit"`
	SharedWithPublic bool    `json:"shared_with_public"`
}

type CreateEntryRequest struct {
	FoodID    uuid.UUID `json:"food_id"`
	MealType  string    `json:"meal_type"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	EntryDate string    `json:"entry_date"`
}

type UpdateEntryRequest struct {
	MealType *string  `json:"meal_type,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
}
