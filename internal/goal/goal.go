package goal

import (
	"time"

	"github.com/google/uuid"
)

type Goal struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	GoalDate    time.Time `json:"goal_date" db:"goal_date"`
	Calories    float64   `json:"calories" db:"calories"`
	ProteinG    float64   `json:"protein_g" db:"protein_g"`
	CarbsG      float64   `json:"carbs_g" db:"carbs_g"`
	FatG        float64   `json:"fat_g" db:"fat_g"`
	WaterGoalML int       `json:"water_goal_ml" db:"water_goal_ml"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type UpsertRequest struct {
	GoalDate    string  `json:"goal_date"`
	Calories    float64 `json:"calories"`
	ProteinG    float64 `json:"protein_g"`
	CarbsG      float64 `json:"carbs_g"`
	FatG        float64 `json:"fat_g"`
	WaterGoalML int     `json:"water_goal_ml"`
}

// Defaults returns the built-in goal used when a user has no goal row on or
// before the requested date.
func Defaults(userID uuid.UUID, date time.Time) *Goal {
	return &Goal{
		UserID:      userID,
		GoalDate:    date,
		Calories:    2000,
		ProteinG:    150,
		CarbsG:      250,
		FatG:        67,
		WaterGoalML: 1920,
	}
}
