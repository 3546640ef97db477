package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/water"
	"github.com/sovushik/SparkyFitness/services"
)

type WaterRepo struct {
	db *pgxpool.Pool
}

var _ services.WaterRepository = (*WaterRepo)(nil)
var _ services.WaterSink = (*WaterRepo)(nil)

func NewWaterRepo(db *pgxpool.Pool) *WaterRepo {
	return &WaterRepo{db: db}
}

func (r *WaterRepo) GetIntake(ctx context.Context, userID uuid.UUID, date time.Time) (*water.Intake, error) {
	query := `
	SELECT id, user_id, entry_date, water_ml, created_at, updated_at
	FROM water_intake
	WHERE user_id = $1 AND entry_date = $2
	`

	in := &water.Intake{}
	err := r.db.QueryRow(ctx, query, userID, date).Scan(
		&in.ID,
		&in.UserID,
		&in.EntryDate,
		&in.WaterML,
		&in.CreatedAt,
		&in.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("water intake")
		}
		return nil, errors.Annotate(err, "getting water intake")
	}

	return in, nil
}

// UpsertIntake sets the day's total to waterML in one atomic statement.
func (r *WaterRepo) UpsertIntake(ctx context.Context, userID uuid.UUID, date time.Time, waterML int) (*water.Intake, error) {
	query := `
	INSERT INTO water_intake (user_id, entry_date, water_ml)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, entry_date)
	DO UPDATE SET water_ml = $3, updated_at = now()
	RETURNING id, user_id, entry_date, water_ml, created_at, updated_at
	`

	in := &water.Intake{}
	err := r.db.QueryRow(ctx, query, userID, date, waterML).Scan(
		&in.ID,
		&in.UserID,
		&in.EntryDate,
		&in.WaterML,
		&in.CreatedAt,
		&in.UpdatedAt,
	)

	if err != nil {
		return nil, errors.Annotate(err, "saving water intake")
	}

	return in, nil
}

// SetIntakeML is the ingestion-facing absolute write; same statement as
// UpsertIntake without the returned record.
func (r *WaterRepo) SetIntakeML(ctx context.Context, userID uuid.UUID, date time.Time, waterML int) error {
	_, err := r.UpsertIntake(ctx, userID, date, waterML)
	return errors.Trace(err)
}

const containerColumns = `id, user_id, name, volume, unit, servings_per_container, is_primary, created_at, updated_at`

func scanContainer(row pgx.Row) (*water.Container, error) {
	c := &water.Container{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Volume,
		&c.Unit,
		&c.ServingsPerContainer,
		&c.IsPrimary,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *WaterRepo) GetContainer(ctx context.Context, id uuid.UUID) (*water.Container, error) {
	query := `SELECT ` + containerColumns + ` FROM water_containers WHERE id = $1`

	c, err := scanContainer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("container")
		}
		return nil, errors.Annotate(err, "getting container")
	}

	return c, nil
}

func (r *WaterRepo) ListContainers(ctx context.Context, userID uuid.UUID) ([]*water.Container, error) {
	query := `
	SELECT ` + containerColumns + `
	FROM water_containers
	WHERE user_id = $1
	ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.Annotate(err, "listing containers")
	}
	defer rows.Close()

	var containers []*water.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, errors.Annotate(err, "scanning container")
		}
		containers = append(containers, c)
	}

	return containers, rows.Err()
}

func (r *WaterRepo) CreateContainer(ctx context.Context, c *water.Container) error {
	query := `
	INSERT INTO water_containers (user_id, name, volume, unit, servings_per_container, is_primary)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		c.UserID,
		c.Name,
		c.Volume,
		c.Unit,
		c.ServingsPerContainer,
		c.IsPrimary,
	).Scan(
		&c.ID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating container")
	}

	return nil
}

func (r *WaterRepo) UpdateContainer(ctx context.Context, c *water.Container) error {
	query := `
	UPDATE water_containers
	SET name = $2, volume = $3, unit = $4, servings_per_container = $5, updated_at = now()
	WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Volume, c.Unit, c.ServingsPerContainer)
	if err != nil {
		return errors.Annotate(err, "updating container")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("container")
	}

	return nil
}

func (r *WaterRepo) DeleteContainer(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM water_containers WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting container")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("container")
	}
	return nil
}

func (r *WaterRepo) GetContainerOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM water_containers WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errors.NotFoundf("container")
		}
		return uuid.Nil, errors.Annotate(err, "getting container owner")
	}
	return owner, nil
}

// SetPrimaryContainer makes one container primary and clears the flag on
// the user's others inside a transaction.
func (r *WaterRepo) SetPrimaryContainer(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Annotate(err, "beginning set-primary tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE water_containers SET is_primary = false, updated_at = now() WHERE user_id = $1 AND is_primary = true`,
		userID); err != nil {
		return errors.Annotate(err, "clearing primary containers")
	}

	result, err := tx.Exec(ctx,
		`UPDATE water_containers SET is_primary = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "setting primary container")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("container")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Annotate(err, "committing set-primary tx")
	}

	return nil
}
