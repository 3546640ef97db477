package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/goal"
)

type GoalRepository interface {
	UpsertGoal(ctx context.Context, g *goal.Goal) error
	GetEffectiveGoal(ctx context.Context, userID uuid.UUID, date time.Time) (*goal.Goal, error)
}

type GoalService struct {
	repo GoalRepository
}

func NewGoalService(repo GoalRepository) *GoalService {
	return &GoalService{repo: repo}
}

func (s *GoalService) UpsertGoal(ctx context.Context, userID uuid.UUID, req *goal.UpsertRequest) (*goal.Goal, error) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.GoalDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.GoalDate)
		if err != nil {
			return nil, errors.NotValidf("goal date %q", req.GoalDate)
		}
		date = parsed
	}

	if req.Calories < 0 || req.ProteinG < 0 || req.CarbsG < 0 || req.FatG < 0 || req.WaterGoalML < 0 {
		return nil, errors.NotValidf("negative goal value")
	}

	g := &goal.Goal{
		UserID:      userID,
		GoalDate:    date,
		Calories:    req.Calories,
		ProteinG:    req.ProteinG,
		CarbsG:      req.CarbsG,
		FatG:        req.FatG,
		WaterGoalML: req.WaterGoalML,
	}

	if err := s.repo.UpsertGoal(ctx, g); err != nil {
		return nil, errors.Trace(err)
	}

	return g, nil
}

// GetEffectiveGoal resolves the goal in force on a date: the newest row
// dated on or before it, or the built-in defaults when none exists.
func (s *GoalService) GetEffectiveGoal(ctx context.Context, userID uuid.UUID, date time.Time) (*goal.Goal, error) {
	g, err := s.repo.GetEffectiveGoal(ctx, userID, date)
	if err != nil {
		if errors.IsNotFound(err) {
			return goal.Defaults(userID, date), nil
		}
		return nil, errors.Trace(err)
	}

	return g, nil
}
