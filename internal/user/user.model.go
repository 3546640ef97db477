package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Auto-clear windows for the chat retention worker.
const (
	ClearNever  = "never"
	Clear7Days  = "7days"
	Clear30Days = "30days"
	ClearAll    = "all"
)

type Preferences struct {
	UserID                 uuid.UUID `json:"user_id" db:"user_id"`
	DateFormat             string    `json:"date_format" db:"date_format"`
	DefaultWeightUnit      string    `json:"default_weight_unit" db:"default_weight_unit"`
	DefaultMeasurementUnit string    `json:"default_measurement_unit" db:"default_measurement_unit"`
	Timezone               string    `json:"timezone" db:"timezone"`
	AutoClearHistory       string    `json:"auto_clear_history" db:"auto_clear_history"`
	SystemPrompt           string    `json:"system_prompt" db:"system_prompt"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPreferences is the row created alongside a new user.
func DefaultPreferences(userID uuid.UUID) *Preferences {
	return &Preferences{
		UserID:                 userID,
		DateFormat:             "yyyy-MM-dd",
		DefaultWeightUnit:      "kg",
		DefaultMeasurementUnit: "cm",
		Timezone:               "UTC",
		AutoClearHistory:       ClearNever,
	}
}
