package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/exercise"
	"github.com/sovushik/SparkyFitness/services"
)

// ActiveCaloriesName is the synthetic exercise provider syncs write to.
const ActiveCaloriesName = "Active Calories"

type ExerciseRepo struct {
	db *pgxpool.Pool
}

var _ services.ExerciseRepository = (*ExerciseRepo)(nil)
var _ services.CalorieSink = (*ExerciseRepo)(nil)

func NewExerciseRepo(db *pgxpool.Pool) *ExerciseRepo {
	return &ExerciseRepo{db: db}
}

const exerciseColumns = `id, owner_id, name, category, calories_per_hour, description, is_custom, source, created_at, updated_at`

func scanExercise(row pgx.Row) (*exercise.Exercise, error) {
	ex := &exercise.Exercise{}
	err := row.Scan(
		&ex.ID,
		&ex.OwnerID,
		&ex.Name,
		&ex.Category,
		&ex.CaloriesPerHour,
		&ex.Description,
		&ex.IsCustom,
		&ex.Source,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ex, nil
}

func (r *ExerciseRepo) SearchExercises(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*exercise.Exercise, error) {
	query := `
	SELECT ` + exerciseColumns + `
	FROM exercises
	WHERE (owner_id = $1 OR owner_id IS NULL)
	  AND name ILIKE '%' || $2 || '%'
	ORDER BY name
	LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, search, limit)
	if err != nil {
		return nil, errors.Annotate(err, "searching exercises")
	}
	defer rows.Close()

	var exercises []*exercise.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, errors.Annotate(err, "scanning exercise")
		}
		exercises = append(exercises, ex)
	}

	return exercises, rows.Err()
}

func (r *ExerciseRepo) GetExercise(ctx context.Context, id uuid.UUID) (*exercise.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1`

	ex, err := scanExercise(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("exercise")
		}
		return nil, errors.Annotate(err, "getting exercise")
	}

	return ex, nil
}

func (r *ExerciseRepo) CreateExercise(ctx context.Context, ex *exercise.Exercise) error {
	query := `
	INSERT INTO exercises (owner_id, name, category, calories_per_hour, description, is_custom, source)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		ex.OwnerID,
		ex.Name,
		ex.Category,
		ex.CaloriesPerHour,
		ex.Description,
		ex.IsCustom,
		ex.Source,
	).Scan(
		&ex.ID,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating exercise")
	}

	return nil
}

func (r *ExerciseRepo) UpdateExercise(ctx context.Context, ex *exercise.Exercise) error {
	query := `
	UPDATE exercises
	SET name = $2, category = $3, calories_per_hour = $4, description = $5, updated_at = now()
	WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, ex.ID, ex.Name, ex.Category, ex.CaloriesPerHour, ex.Description)
	if err != nil {
		return errors.Annotate(err, "updating exercise")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("exercise")
	}

	return nil
}

func (r *ExerciseRepo) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting exercise")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("exercise")
	}
	return nil
}

func (r *ExerciseRepo) GetExerciseOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var owner *uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT owner_id FROM exercises WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("exercise")
		}
		return nil, errors.Annotate(err, "getting exercise owner")
	}
	return owner, nil
}

// UpsertEntry writes the day's log row for an exercise. Logging the same
// exercise twice on one day replaces the previous row.
func (r *ExerciseRepo) UpsertEntry(ctx context.Context, e *exercise.Entry) error {
	query := `
	INSERT INTO exercise_entries (user_id, exercise_id, duration_minutes, calories_burned, entry_date, notes)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id, exercise_id, entry_date)
	DO UPDATE SET
		duration_minutes = $3,
		calories_burned = $4,
		notes = $6
	RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		e.UserID,
		e.ExerciseID,
		e.DurationMinutes,
		e.CaloriesBurned,
		e.EntryDate,
		e.Notes,
	).Scan(
		&e.ID,
		&e.CreatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "saving exercise entry")
	}

	return nil
}

func (r *ExerciseRepo) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*exercise.EntryWithExercise, error) {
	query := `
	SELECT e.id, e.user_id, e.exercise_id, e.duration_minutes, e.calories_burned, e.entry_date, e.notes, e.created_at,
	       x.id, x.owner_id, x.name, x.category, x.calories_per_hour, x.description, x.is_custom, x.source, x.created_at, x.updated_at
	FROM exercise_entries e
	JOIN exercises x ON x.id = e.exercise_id
	WHERE e.user_id = $1 AND e.entry_date = $2
	ORDER BY e.created_at
	`

	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, errors.Annotate(err, "listing exercise entries")
	}
	defer rows.Close()

	var entries []*exercise.EntryWithExercise
	for rows.Next() {
		e := &exercise.EntryWithExercise{}
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.ExerciseID,
			&e.DurationMinutes,
			&e.CaloriesBurned,
			&e.EntryDate,
			&e.Notes,
			&e.CreatedAt,
			&e.Exercise.ID,
			&e.Exercise.OwnerID,
			&e.Exercise.Name,
			&e.Exercise.Category,
			&e.Exercise.CaloriesPerHour,
			&e.Exercise.Description,
			&e.Exercise.IsCustom,
			&e.Exercise.Source,
			&e.Exercise.CreatedAt,
			&e.Exercise.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Annotate(err, "scanning exercise entry")
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *ExerciseRepo) GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM exercise_entries WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errors.NotFoundf("exercise entry")
		}
		return uuid.Nil, errors.Annotate(err, "getting exercise entry owner")
	}
	return owner, nil
}

func (r *ExerciseRepo) UpdateEntry(ctx context.Context, id uuid.UUID, duration, calories *float64, notes *string) error {
	query := `
	UPDATE exercise_entries
	SET duration_minutes = COALESCE($2, duration_minutes),
	    calories_burned = COALESCE($3, calories_burned),
	    notes = COALESCE($4, notes)
	WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, duration, calories, notes)
	if err != nil {
		return errors.Annotate(err, "updating exercise entry")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("exercise entry")
	}

	return nil
}

func (r *ExerciseRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM exercise_entries WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting exercise entry")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("exercise entry")
	}
	return nil
}

// UpsertHealthCalories stores one day's synced active-energy burn. The
// user's "Active Calories" exercise is created on first sync; both steps
// run in one transaction so a failed entry write never leaves an orphan
// exercise visible with no log.
func (r *ExerciseRepo) UpsertHealthCalories(ctx context.Context, userID uuid.UUID, date time.Time, calories float64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Annotate(err, "beginning health calories tx")
	}
	defer tx.Rollback(ctx)

	resolveQuery := `
	INSERT INTO exercises (owner_id, name, category, source)
	VALUES ($1, $2, 'Cardio', 'health')
	ON CONFLICT (owner_id, name) WHERE source = 'health'
	DO UPDATE SET updated_at = now()
	RETURNING id
	`

	var exerciseID uuid.UUID
	if err := tx.QueryRow(ctx, resolveQuery, userID, ActiveCaloriesName).Scan(&exerciseID); err != nil {
		return errors.Annotate(err, "resolving health exercise")
	}

	entryQuery := `
	INSERT INTO exercise_entries (user_id, exercise_id, calories_burned, entry_date)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, exercise_id, entry_date)
	DO UPDATE SET calories_burned = $3
	`

	if _, err := tx.Exec(ctx, entryQuery, userID, exerciseID, calories, date); err != nil {
		return errors.Annotate(err, "saving health calories entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Annotate(err, "committing health calories tx")
	}

	return nil
}
