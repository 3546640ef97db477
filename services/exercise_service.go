package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/exercise"
	"github.com/sovushik/SparkyFitness/utils"
)

type ExerciseRepository interface {
	SearchExercises(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*exercise.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*exercise.Exercise, error)
	CreateExercise(ctx context.Context, ex *exercise.Exercise) error
	UpdateExercise(ctx context.Context, ex *exercise.Exercise) error
	DeleteExercise(ctx context.Context, id uuid.UUID) error
	GetExerciseOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	UpsertEntry(ctx context.Context, e *exercise.Entry) error
	ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*exercise.EntryWithExercise, error)
	GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, duration, calories *float64, notes *string) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

type ExerciseService struct {
	repo ExerciseRepository
}

func NewExerciseService(repo ExerciseRepository) *ExerciseService {
	return &ExerciseService{repo: repo}
}

func (s *ExerciseService) Search(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*exercise.Exercise, error) {
	exercises, err := s.repo.SearchExercises(ctx, userID, strings.TrimSpace(search), clampLimit(limit))
	return exercises, errors.Trace(err)
}

func (s *ExerciseService) Create(ctx context.Context, userID uuid.UUID, req *exercise.CreateExerciseRequest) (*exercise.Exercise, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NotValidf("empty exercise name")
	}
	if req.CaloriesPerHour < 0 {
		return nil, errors.NotValidf("calories per hour %v", req.CaloriesPerHour)
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "General"
	}

	ex := &exercise.Exercise{
		OwnerID:         &userID,
		Name:            strings.TrimSpace(req.Name),
		Category:        category,
		CaloriesPerHour: req.CaloriesPerHour,
		Description:     strings.TrimSpace(req.Description),
		IsCustom:        true,
		Source:          exercise.SourceManual,
	}

	if err := s.repo.CreateExercise(ctx, ex); err != nil {
		return nil, errors.Trace(err)
	}

	return ex, nil
}

func (s *ExerciseService) Get(ctx context.Context, userID, id uuid.UUID) (*exercise.Exercise, error) {
	ex, err := s.repo.GetExercise(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if ex.OwnerID != nil && *ex.OwnerID != userID {
		return nil, errors.NotFoundf("exercise")
	}
	return ex, nil
}

func (s *ExerciseService) checkExerciseOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetExerciseOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner == nil {
		return errors.Forbiddenf("global exercise is read-only")
	}
	if *owner != userID {
		return errors.Forbiddenf("exercise belongs to another user")
	}
	return nil
}

func (s *ExerciseService) Update(ctx context.Context, userID, id uuid.UUID, req *exercise.CreateExerciseRequest) (*exercise.Exercise, error) {
	if err := s.checkExerciseOwner(ctx, userID, id); err != nil {
		return nil, errors.Trace(err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NotValidf("empty exercise name")
	}
	if req.CaloriesPerHour < 0 {
		return nil, errors.NotValidf("calories per hour %v", req.CaloriesPerHour)
	}

	ex, err := s.repo.GetExercise(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}

	ex.Name = strings.TrimSpace(req.Name)
	if category := strings.TrimSpace(req.Category); category != "" {
		ex.Category = category
	}
	ex.CaloriesPerHour = req.CaloriesPerHour
	ex.Description = strings.TrimSpace(req.Description)

	if err := s.repo.UpdateExercise(ctx, ex); err != nil {
		return nil, errors.Trace(err)
	}

	return ex, nil
}

func (s *ExerciseService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkExerciseOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteExercise(ctx, id))
}

// AddEntry logs an exercise for a day. When the caller omits the burn it
// is derived from the exercise's hourly rate.
func (s *ExerciseService) AddEntry(ctx context.Context, userID uuid.UUID, req *exercise.CreateEntryRequest) (*exercise.Entry, error) {
	if req.DurationMinutes < 0 {
		return nil, errors.NotValidf("duration %v", req.DurationMinutes)
	}
	date, err := time.Parse(time.DateOnly, req.EntryDate)
	if err != nil {
		return nil, errors.NotValidf("entry date %q", req.EntryDate)
	}

	ex, err := s.Get(ctx, userID, req.ExerciseID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	calories := utils.CaloriesForDuration(ex.CaloriesPerHour, req.DurationMinutes)
	if req.CaloriesBurned != nil {
		if *req.CaloriesBurned < 0 {
			return nil, errors.NotValidf("calories burned %v", *req.CaloriesBurned)
		}
		calories = *req.CaloriesBurned
	}

	e := &exercise.Entry{
		UserID:          userID,
		ExerciseID:      ex.ID,
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  calories,
		EntryDate:       date,
		Notes:           strings.TrimSpace(req.Notes),
	}

	if err := s.repo.UpsertEntry(ctx, e); err != nil {
		return nil, errors.Trace(err)
	}

	return e, nil
}

func (s *ExerciseService) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*exercise.EntryWithExercise, error) {
	entries, err := s.repo.ListEntriesByDate(ctx, userID, date)
	return entries, errors.Trace(err)
}

func (s *ExerciseService) checkEntryOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetEntryOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Forbiddenf("exercise entry belongs to another user")
	}
	return nil
}

func (s *ExerciseService) UpdateEntry(ctx context.Context, userID, id uuid.UUID, req *exercise.UpdateEntryRequest) error {
	if err := s.checkEntryOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}

	if req.DurationMinutes != nil && *req.DurationMinutes < 0 {
		return errors.NotValidf("duration %v", *req.DurationMinutes)
	}
	if req.CaloriesBurned != nil && *req.CaloriesBurned < 0 {
		return errors.NotValidf("calories burned %v", *req.CaloriesBurned)
	}

	return errors.Trace(s.repo.UpdateEntry(ctx, id, req.DurationMinutes, req.CaloriesBurned, req.Notes))
}

func (s *ExerciseService) DeleteEntry(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkEntryOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteEntry(ctx, id))
}
