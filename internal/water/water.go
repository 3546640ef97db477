package water

import (
	"time"

	"github.com/google/uuid"
)

const (
	UnitML = "ml"
	UnitOz = "oz"

	// MLPerOz converts fluid ounces to milliliters.
	MLPerOz = 29.5735

	// Default glass size when no container is selected: a 2 L daily goal
	// split into 8 drinks.
	DefaultDrinkML = 250
)

type Intake struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	EntryDate time.Time `json:"entry_date" db:"entry_date"`
	WaterML   int       `json:"water_ml" db:"water_ml"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Container struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	UserID               uuid.UUID `json:"user_id" db:"user_id"`
	Name                 string    `json:"name" db:"name"`
	Volume               float64   `json:"volume" db:"volume"`
	Unit                 string    `json:"unit" db:"unit"`
	ServingsPerContainer int       `json:"servings_per_container" db:"servings_per_container"`
	IsPrimary            bool      `json:"is_primary" db:"is_primary"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// DrinkML is the volume one serving from the container adds, in whole ml.
func (c *Container) DrinkML() int {
	volume := c.Volume
	if c.Unit == UnitOz {
		volume *= MLPerOz
	}
	if c.ServingsPerContainer <= 0 {
		return 0
	}
	return int(volume/float64(c.ServingsPerContainer) + 0.5)
}

type UpsertIntakeRequest struct {
	EntryDate    string     `json:"entry_date"`
	ChangeDrinks int        `json:"change_drinks"`
	ContainerID  *uuid.UUID `json:"container_id,omitempty"`
}

type ContainerRequest struct {
	Name                 string  `json:"name"`
	Volume               float64 `json:"volume"`
	Unit                 string  `json:"unit"`
	ServingsPerContainer int     `json:"servings_per_container"`
}
