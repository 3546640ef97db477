package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/measurement"
	"github.com/sovushik/SparkyFitness/services"
)

type MeasurementRepo struct {
	db *pgxpool.Pool
}

var _ services.MeasurementRepository = (*MeasurementRepo)(nil)
var _ services.StepSink = (*MeasurementRepo)(nil)

func NewMeasurementRepo(db *pgxpool.Pool) *MeasurementRepo {
	return &MeasurementRepo{db: db}
}

const checkInColumns = `id, user_id, entry_date, weight, neck, waist, hips, steps, created_at, updated_at`

func scanCheckIn(row pgx.Row) (*measurement.CheckIn, error) {
	c := &measurement.CheckIn{}
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.EntryDate,
		&c.Weight,
		&c.Neck,
		&c.Waist,
		&c.Hips,
		&c.Steps,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpsertCheckIn merges the day's snapshot: fields left nil keep whatever
// was stored earlier that day.
func (r *MeasurementRepo) UpsertCheckIn(ctx context.Context, c *measurement.CheckIn) (*measurement.CheckIn, error) {
	query := `
	INSERT INTO check_in_measurements (user_id, entry_date, weight, neck, waist, hips, steps)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, entry_date)
	DO UPDATE SET
		weight = COALESCE(EXCLUDED.weight, check_in_measurements.weight),
		neck = COALESCE(EXCLUDED.neck, check_in_measurements.neck),
		waist = COALESCE(EXCLUDED.waist, check_in_measurements.waist),
		hips = COALESCE(EXCLUDED.hips, check_in_measurements.hips),
		steps = COALESCE(EXCLUDED.steps, check_in_measurements.steps),
		updated_at = now()
	RETURNING ` + checkInColumns + `
	`

	stored, err := scanCheckIn(r.db.QueryRow(
		ctx,
		query,
		c.UserID,
		c.EntryDate,
		c.Weight,
		c.Neck,
		c.Waist,
		c.Hips,
		c.Steps,
	))

	if err != nil {
		return nil, errors.Annotate(err, "saving check-in")
	}

	return stored, nil
}

func (r *MeasurementRepo) GetCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) (*measurement.CheckIn, error) {
	query := `SELECT ` + checkInColumns + ` FROM check_in_measurements WHERE user_id = $1 AND entry_date = $2`

	c, err := scanCheckIn(r.db.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("check-in")
		}
		return nil, errors.Annotate(err, "getting check-in")
	}

	return c, nil
}

func (r *MeasurementRepo) ListCheckIns(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*measurement.CheckIn, error) {
	query := `
	SELECT ` + checkInColumns + `
	FROM check_in_measurements
	WHERE user_id = $1 AND entry_date BETWEEN $2 AND $3
	ORDER BY entry_date
	`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, errors.Annotate(err, "listing check-ins")
	}
	defer rows.Close()

	var checkIns []*measurement.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, errors.Annotate(err, "scanning check-in")
		}
		checkIns = append(checkIns, c)
	}

	return checkIns, rows.Err()
}

func (r *MeasurementRepo) DeleteCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM check_in_measurements WHERE user_id = $1 AND entry_date = $2`, userID, date)
	if err != nil {
		return errors.Annotate(err, "deleting check-in")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("check-in")
	}
	return nil
}

// UpsertSteps writes just the steps column of the day's check-in row; the
// ingestion dispatcher is its only caller.
func (r *MeasurementRepo) UpsertSteps(ctx context.Context, userID uuid.UUID, date time.Time, steps int) error {
	query := `
	INSERT INTO check_in_measurements (user_id, entry_date, steps)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, entry_date)
	DO UPDATE SET steps = $3, updated_at = now()
	`

	if _, err := r.db.Exec(ctx, query, userID, date, steps); err != nil {
		return errors.Annotate(err, "saving steps")
	}

	return nil
}

func (r *MeasurementRepo) CreateCategory(ctx context.Context, c *measurement.CustomCategory) error {
	query := `
	INSERT INTO custom_categories (user_id, name, measurement_type, frequency)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, c.UserID, c.Name, c.MeasurementType, c.Frequency).Scan(
		&c.ID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating category")
	}

	return nil
}

func (r *MeasurementRepo) ListCategories(ctx context.Context, userID uuid.UUID) ([]*measurement.CustomCategory, error) {
	query := `
	SELECT id, user_id, name, measurement_type, frequency, created_at, updated_at
	FROM custom_categories
	WHERE user_id = $1
	ORDER BY name
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, errors.Annotate(err, "listing categories")
	}
	defer rows.Close()

	var categories []*measurement.CustomCategory
	for rows.Next() {
		c := &measurement.CustomCategory{}
		err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Name,
			&c.MeasurementType,
			&c.Frequency,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Annotate(err, "scanning category")
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (r *MeasurementRepo) GetCategoryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM custom_categories WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errors.NotFoundf("category")
		}
		return uuid.Nil, errors.Annotate(err, "getting category owner")
	}
	return owner, nil
}

func (r *MeasurementRepo) UpdateCategory(ctx context.Context, c *measurement.CustomCategory) error {
	query := `
	UPDATE custom_categories
	SET name = $2, measurement_type = $3, frequency = $4, updated_at = now()
	WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, c.ID, c.Name, c.MeasurementType, c.Frequency)
	if err != nil {
		return errors.Annotate(err, "updating category")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("category")
	}

	return nil
}

func (r *MeasurementRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM custom_categories WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting category")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("category")
	}
	return nil
}

func (r *MeasurementRepo) CreateEntry(ctx context.Context, e *measurement.CustomEntry) error {
	query := `
	INSERT INTO custom_measurements (user_id, category_id, value, entry_date, entry_hour, entry_timestamp)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		e.UserID,
		e.CategoryID,
		e.Value,
		e.EntryDate,
		e.EntryHour,
		e.EntryTimestamp,
	).Scan(
		&e.ID,
		&e.CreatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating measurement")
	}

	return nil
}

const customEntryColumns = `id, user_id, category_id, value, entry_date, entry_hour, entry_timestamp, created_at`

func (r *MeasurementRepo) scanEntries(rows pgx.Rows) ([]*measurement.CustomEntry, error) {
	defer rows.Close()

	var entries []*measurement.CustomEntry
	for rows.Next() {
		e := &measurement.CustomEntry{}
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.CategoryID,
			&e.Value,
			&e.EntryDate,
			&e.EntryHour,
			&e.EntryTimestamp,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, errors.Annotate(err, "scanning measurement")
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *MeasurementRepo) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*measurement.CustomEntry, error) {
	query := `
	SELECT ` + customEntryColumns + `
	FROM custom_measurements
	WHERE user_id = $1 AND entry_date = $2
	ORDER BY entry_timestamp
	`

	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, errors.Annotate(err, "listing measurements")
	}

	return r.scanEntries(rows)
}

func (r *MeasurementRepo) ListEntriesByCategory(ctx context.Context, userID, categoryID uuid.UUID, from, to time.Time) ([]*measurement.CustomEntry, error) {
	query := `
	SELECT ` + customEntryColumns + `
	FROM custom_measurements
	WHERE user_id = $1 AND category_id = $2 AND entry_date BETWEEN $3 AND $4
	ORDER BY entry_timestamp
	`

	rows, err := r.db.Query(ctx, query, userID, categoryID, from, to)
	if err != nil {
		return nil, errors.Annotate(err, "listing measurements by category")
	}

	return r.scanEntries(rows)
}

func (r *MeasurementRepo) GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM custom_measurements WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errors.NotFoundf("measurement")
		}
		return uuid.Nil, errors.Annotate(err, "getting measurement owner")
	}
	return owner, nil
}

func (r *MeasurementRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM custom_measurements WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting measurement")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("measurement")
	}
	return nil
}
