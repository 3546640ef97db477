package measurement

import (
	"time"

	"github.com/google/uuid"
)

// Category frequencies control how often the frontend prompts for a value.
const (
	FrequencyDaily  = "Daily"
	FrequencyHourly = "Hourly"
	FrequencyAll    = "All"
)

// ValidFrequency reports whether s is a recognized category frequency.
func ValidFrequency(s string) bool {
	switch s {
	case FrequencyDaily, FrequencyHourly, FrequencyAll:
		return true
	}
	return false
}

// CheckIn is the daily body snapshot. Unset fields stay nil so an upsert
// does not clobber values logged earlier the same day.
type CheckIn struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	EntryDate time.Time `json:"entry_date" db:"entry_date"`
	Weight    *float64  `json:"weight,omitempty" db:"weight"`
	Neck      *float64  `json:"neck,omitempty" db:"neck"`
	Waist     *float64  `json:"waist,omitempty" db:"waist"`
	Hips      *float64  `json:"hips,omitempty" db:"hips"`
	Steps     *int      `json:"steps,omitempty" db:"steps"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CustomCategory struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	MeasurementType string    `json:"measurement_type" db:"measurement_type"`
	Frequency       string    `json:"frequency" db:"frequency"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type CustomEntry struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	CategoryID     uuid.UUID `json:"category_id" db:"category_id"`
	Value          float64   `json:"value" db:"value"`
	EntryDate      time.Time `json:"entry_date" db:"entry_date"`
	EntryHour      *int      `json:"entry_hour,omitempty" db:"entry_hour"`
	EntryTimestamp time.Time `json:"entry_timestamp" db:"entry_timestamp"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type UpsertCheckInRequest struct {
	EntryDate string   `json:"entry_date"`
	Weight    *float64 `json:"weight,omitempty"`
	Neck      *float64 `json:"neck,omitempty"`
	Waist     *float64 `json:"waist,omitempty"`
	Hips      *float64 `json:"hips,omitempty"`
	Steps     *int     `json:"steps,omitempty"`
}

type CategoryRequest struct {
	Name            string `json:"name"`
	MeasurementType string `json:"measurement_type"`
	Frequency       string `json:"frequency"`
}

type CreateEntryRequest struct {
	CategoryID uuid.UUID `json:"category_id"`
	Value      float64   `json:"value"`
	EntryDate  string    `json:"entry_date"`
	EntryHour  *int      `json:"entry_hour,omitempty"`
}
