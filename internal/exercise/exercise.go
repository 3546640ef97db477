package exercise

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceManual = "manual"
	SourceHealth = "health"
)

// Exercise is a catalog item. OwnerID is nil for the shared global catalog.
type Exercise struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OwnerID         *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	Name            string     `json:"name" db:"name"`
	Category        string     `json:"category" db:"category"`
	CaloriesPerHour float64    `json:"calories_per_hour" db:"calories_per_hour"`
	Description     string     `json:"description,omitempty" db:"description"`
	IsCustom        bool       `json:"is_custom" db:"is_custom"`
	Source          string     `json:"source" db:"source"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

type Entry struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	ExerciseID      uuid.UUID `json:"exercise_id" db:"exercise_id"`
	DurationMinutes float64   `json:"duration_minutes" db:"duration_minutes"`
	CaloriesBurned  float64   `json:"calories_burned" db:"calories_burned"`
	EntryDate       time.Time `json:"entry_date" db:"entry_date"`
	Notes           string    `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// EntryWithExercise joins a log entry with its exercise for day views.
type EntryWithExercise struct {
	Entry
	Exercise Exercise `json:"exercise"`
}

type CreateExerciseRequest struct {
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	CaloriesPerHour float64 `json:"calories_per_hour"`
	Description     string  `json:"description"`
}

type CreateEntryRequest struct {
	ExerciseID      uuid.UUID `json:"exercise_id"`
	DurationMinutes float64   `json:"duration_minutes"`
	CaloriesBurned  *float64  `json:"calories_burned,omitempty"`
	EntryDate       string    `json:"entry_date"`
	Notes           string    `json:"notes"`
}

type UpdateEntryRequest struct {
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
	CaloriesBurned  *float64 `json:"calories_burned,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}
