package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/goal"
	"github.com/sovushik/SparkyFitness/services"
)

type GoalRepo struct {
	db *pgxpool.Pool
}

var _ services.GoalRepository = (*GoalRepo)(nil)

func NewGoalRepo(db *pgxpool.Pool) *GoalRepo {
	return &GoalRepo{db: db}
}

func (r *GoalRepo) UpsertGoal(ctx context.Context, g *goal.Goal) error {
	query := `
	INSERT INTO user_goals (user_id, goal_date, calories, protein_g, carbs_g, fat_g, water_goal_ml)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (user_id, goal_date)
	DO UPDATE SET
		calories = $3,
		protein_g = $4,
		carbs_g = $5,
		fat_g = $6,
		water_goal_ml = $7,
		updated_at = now()
	RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx,
		query,
		g.UserID,
		g.GoalDate,
		g.Calories,
		g.ProteinG,
		g.CarbsG,
		g.FatG,
		g.WaterGoalML,
	).Scan(
		&g.ID,
		&g.CreatedAt,
		&g.UpdatedAt,
	)

	if err != nil {
		return errors.Annotate(err, "saving goal")
	}

	return nil
}

// GetEffectiveGoal returns the newest goal row dated on or before date.
func (r *GoalRepo) GetEffectiveGoal(ctx context.Context, userID uuid.UUID, date time.Time) (*goal.Goal, error) {
	query := `
	SELECT id, user_id, goal_date, calories, protein_g, carbs_g, fat_g, water_goal_ml, created_at, updated_at
	FROM user_goals
	WHERE user_id = $1 AND goal_date <= $2
	ORDER BY goal_date DESC
	LIMIT 1
	`

	g := &goal.Goal{}
	err := r.db.QueryRow(ctx, query, userID, date).Scan(
		&g.ID,
		&g.UserID,
		&g.GoalDate,
		&g.Calories,
		&g.ProteinG,
		&g.CarbsG,
		&g.FatG,
		&g.WaterGoalML,
		&g.CreatedAt,
		&g.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundf("goal")
		}
		return nil, errors.Annotate(err, "getting effective goal")
	}

	return g, nil
}
