package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/food"
	"github.com/sovushik/SparkyFitness/services"
)

type FoodRepo struct {
	db *pgxpool.Pool
}

var _ services.FoodRepository = (*FoodRepo)(nil)

func NewFoodRepo(db *pgxpool.Pool) *FoodRepo {
	return &FoodRepo{db: db}
}

const foodColumns = `id, owner_id, name, brand, calories, protein_g, carbs_g, fat_g, serving_size, serving_unit, is_custom, shared_with_public, created_at, updated_at`

func scanFood(row pgx.Row) (*food.Food, error) {
	f := &food.Food{}
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Name,
		&f.Brand,
		&f.Calories,
		&f.ProteinG,
		&f.CarbsG,
		&f.FatG,
		&f.ServingSize,
		&f.ServingUnit,
		&f.IsCustom,
		&f.SharedWithPublic,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SearchFoods matches the user's own foods plus the global and public
// catalog, name substring, case-insensitive.
func (r *FoodRepo) SearchFoods(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*food.Food, error) {
	query := `
	SELECT ` + foodColumns + `
	FROM foods
	WHERE (owner_id = $1 OR owner_id IS NULL OR shared_with_public = true)
	  AND name ILIKE '%' || $2 || '%'
	ORDER BY name
	LIMIT $3
	`

	rows, err := r.db.Query(ctx, query, userID, search, limit)
	if err != nil {
		return nil, errors.Annotate(err, "searching foods")
	}
	defer rows.Close()

	var foods []*food.Food
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, errors.Annotate(err, "scanning food")
		}
		foods = append(foods, f)
	}

	return foods, rows.Err()
}

func (r *FoodRepo) GetFood(ctx context.Context, id uuid.UUID) (*food.Food, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE id = $1`

	f, err := scanFood(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("food")
		}
		return nil, errors.Annotate(err, "getting food")
	}

	return f, nil
}

func (r *FoodRepo) CreateFood(ctx context.Context, f *food.Food) error {
	query := `
	INSERT INTO foods (owner_id, name, brand, calories, protein_g, carbs_g, fat_g, serving_size, serving_unit, is_custom, shared_with_public)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		f.OwnerID,
		f.Name,
		f.Brand,
		f.Calories,
		f.ProteinG,
		f.CarbsG,
		f.FatG,
		f.ServingSize,
		f.ServingUnit,
		f.IsCustom,
		f.SharedWithPublic,
	).Scan(
		&f.ID,
		&f.CreatedAt,
		&f.UpdatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating food")
	}

	return nil
}

func (r *FoodRepo) UpdateFood(ctx context.Context, f *food.Food) error {
	query := `
	UPDATE foods
	SET name = $2, brand = $3, calories = $4, protein_g = $5, carbs_g = $6, fat_g = $7, serving_size = $8, serving_unit = $9, shared_with_public = $10, updated_at = now()
	WHERE id = $1
	`

	result, err := r.db.Exec(
		ctx,
		query,
		f.ID,
		f.Name,
		f.Brand,
		f.Calories,
		f.ProteinG,
		f.CarbsG,
		f.FatG,
		f.ServingSize,
		f.ServingUnit,
		f.SharedWithPublic,
	)

	if err != nil {
		return errors.Annotate(err, "updating food")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("food")
	}

	return nil
}

func (r *FoodRepo) DeleteFood(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting food")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("food")
	}
	return nil
}

// GetFoodOwner returns nil for rows in the shared global catalog.
func (r *FoodRepo) GetFoodOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var owner *uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT owner_id FROM foods WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("food")
		}
		return nil, errors.Annotate(err, "getting food owner")
	}
	return owner, nil
}

func (r *FoodRepo) CreateEntry(ctx context.Context, e *food.Entry) error {
	query := `
	INSERT INTO food_entries (user_id, food_id, meal_type, quantity, unit, entry_date)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		e.UserID,
		e.FoodID,
		e.MealType,
		e.Quantity,
		e.Unit,
		e.EntryDate,
	).Scan(
		&e.ID,
		&e.CreatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "creating food entry")
	}

	return nil
}

func (r *FoodRepo) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*food.EntryWithFood, error) {
	query := `
	SELECT e.id, e.user_id, e.food_id, e.meal_type, e.quantity, e.unit, e.entry_date, e.created_at,
	       f.id, f.owner_id, f.name, f.brand, f.calories, f.protein_g, f.carbs_g, f.fat_g, f.serving_size, f.serving_unit, f.is_custom, f.shared_with_public, f.created_at, f.updated_at
	FROM food_entries e
	JOIN foods f ON f.id = e.food_id
	WHERE e.user_id = $1 AND e.entry_date = $2
	ORDER BY e.created_at
	`

	rows, err := r.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, errors.Annotate(err, "listing food entries")
	}
	defer rows.Close()

	var entries []*food.EntryWithFood
	for rows.Next() {
		e := &food.EntryWithFood{}
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.FoodID,
			&e.MealType,
			&e.Quantity,
			&e.Unit,
			&e.EntryDate,
			&e.CreatedAt,
			&e.Food.ID,
			&e.Food.OwnerID,
			&e.Food.Name,
			&e.Food.Brand,
			&e.Food.Calories,
			&e.Food.ProteinG,
			&e.Food.CarbsG,
			&e.Food.FatG,
			&e.Food.ServingSize,
			&e.Food.ServingUnit,
			&e.Food.IsCustom,
			&e.Food.SharedWithPublic,
			&e.Food.CreatedAt,
			&e.Food.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Annotate(err, "scanning food entry")
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *FoodRepo) GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM food_entries WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errors.NotFoundf("food entry")
		}
		return uuid.Nil, errors.Annotate(err, "getting food entry owner")
	}
	return owner, nil
}

// UpdateEntry patches only the non-nil fields.
func (r *FoodRepo) UpdateEntry(ctx context.Context, id uuid.UUID, mealType *string, quantity *float64, unit *string) error {
	query := `
	UPDATE food_entries
	SET meal_type = COALESCE($2, meal_type),
	    quantity = COALESCE($3, quantity),
	    unit = COALESCE($4, unit)
	WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, mealType, quantity, unit)
	if err != nil {
		return errors.Annotate(err, "updating food entry")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("food entry")
	}

	return nil
}

func (r *FoodRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM food_entries WHERE id = $1`, id)
	if err != nil {
		return errors.Annotate(err, "deleting food entry")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFoundf("food entry")
	}
	return nil
}
