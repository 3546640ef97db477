package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovushik/SparkyFitness/internal/exercise"
)

type fakeExerciseRepo struct {
	exercises map[uuid.UUID]*exercise.Exercise
	entries   map[uuid.UUID]*exercise.Entry
	mutations int
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{
		exercises: make(map[uuid.UUID]*exercise.Exercise),
		entries:   make(map[uuid.UUID]*exercise.Entry),
	}
}

func (f *fakeExerciseRepo) SearchExercises(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*exercise.Exercise, error) {
	var out []*exercise.Exercise
	for _, ex := range f.exercises {
		if ex.OwnerID == nil || *ex.OwnerID == userID {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeExerciseRepo) GetExercise(ctx context.Context, id uuid.UUID) (*exercise.Exercise, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return nil, errors.NotFoundf("exercise")
	}
	return ex, nil
}

func (f *fakeExerciseRepo) CreateExercise(ctx context.Context, ex *exercise.Exercise) error {
	f.mutations++
	ex.ID = uuid.New()
	f.exercises[ex.ID] = ex
	return nil
}

func (f *fakeExerciseRepo) UpdateExercise(ctx context.Context, ex *exercise.Exercise) error {
	f.mutations++
	f.exercises[ex.ID] = ex
	return nil
}

func (f *fakeExerciseRepo) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	f.mutations++
	delete(f.exercises, id)
	return nil
}

func (f *fakeExerciseRepo) GetExerciseOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	ex, ok := f.exercises[id]
	if !ok {
		return nil, errors.NotFoundf("exercise")
	}
	return ex.OwnerID, nil
}

func (f *fakeExerciseRepo) UpsertEntry(ctx context.Context, e *exercise.Entry) error {
	f.mutations++
	// one row per user, exercise and day, matching the table constraint
	for _, existing := range f.entries {
		if existing.UserID == e.UserID && existing.ExerciseID == e.ExerciseID && existing.EntryDate.Equal(e.EntryDate) {
			e.ID = existing.ID
			f.entries[e.ID] = e
			return nil
		}
	}
	e.ID = uuid.New()
	f.entries[e.ID] = e
	return nil
}

func (f *fakeExerciseRepo) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*exercise.EntryWithExercise, error) {
	var out []*exercise.EntryWithExercise
	for _, e := range f.entries {
		if e.UserID == userID && e.EntryDate.Equal(date) {
			out = append(out, &exercise.EntryWithExercise{Entry: *e, Exercise: *f.exercises[e.ExerciseID]})
		}
	}
	return out, nil
}

func (f *fakeExerciseRepo) GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	e, ok := f.entries[id]
	if !ok {
		return uuid.Nil, errors.NotFoundf("exercise entry")
	}
	return e.UserID, nil
}

func (f *fakeExerciseRepo) UpdateEntry(ctx context.Context, id uuid.UUID, duration, calories *float64, notes *string) error {
	f.mutations++
	e := f.entries[id]
	if duration != nil {
		e.DurationMinutes = *duration
	}
	if calories != nil {
		e.CaloriesBurned = *calories
	}
	if notes != nil {
		e.Notes = *notes
	}
	return nil
}

func (f *fakeExerciseRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	f.mutations++
	delete(f.entries, id)
	return nil
}

func (f *fakeExerciseRepo) addExercise(owner *uuid.UUID, name string, perHour float64) *exercise.Exercise {
	ex := &exercise.Exercise{
		ID:              uuid.New(),
		OwnerID:         owner,
		Name:            name,
		Category:        "Cardio",
		CaloriesPerHour: perHour,
		Source:          exercise.SourceManual,
	}
	f.exercises[ex.ID] = ex
	return ex
}

func TestAddEntryDerivesCaloriesFromRate(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo)
	userID := uuid.New()
	running := repo.addExercise(nil, "Running", 600)

	entry, err := svc.AddEntry(context.Background(), userID, &exercise.CreateEntryRequest{
		ExerciseID:      running.ID,
		DurationMinutes: 30,
		EntryDate:       "2025-03-14",
	})

	require.NoError(t, err)
	assert.Equal(t, float64(300), entry.CaloriesBurned)
}

func TestAddEntryExplicitCaloriesWin(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo)
	userID := uuid.New()
	running := repo.addExercise(nil, "Running", 600)

	entry, err := svc.AddEntry(context.Background(), userID, &exercise.CreateEntryRequest{
		ExerciseID:      running.ID,
		DurationMinutes: 30,
		CaloriesBurned:  ptr(412.0),
		EntryDate:       "2025-03-14",
	})

	require.NoError(t, err)
	assert.Equal(t, 412.0, entry.CaloriesBurned)
}

func TestAddEntrySameDayReplaces(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo)
	userID := uuid.New()
	running := repo.addExercise(nil, "Running", 600)
	ctx := context.Background()

	first, err := svc.AddEntry(ctx, userID, &exercise.CreateEntryRequest{
		ExerciseID: running.ID, DurationMinutes: 30, EntryDate: "2025-03-14",
	})
	require.NoError(t, err)

	_, err = svc.AddEntry(ctx, userID, &exercise.CreateEntryRequest{
		ExerciseID: running.ID, DurationMinutes: 45, EntryDate: "2025-03-14",
	})
	require.NoError(t, err)

	stored := repo.entries[first.ID]
	require.NotNil(t, stored)
	assert.Equal(t, float64(45), stored.DurationMinutes)
	assert.Len(t, repo.entries, 1, "re-logging the same exercise on one day keeps a single row")
}

func TestAddEntryValidatesInput(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo)
	userID := uuid.New()
	running := repo.addExercise(nil, "Running", 600)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, userID, &exercise.CreateEntryRequest{
		ExerciseID: running.ID, DurationMinutes: -5, EntryDate: "2025-03-14",
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.AddEntry(ctx, userID, &exercise.CreateEntryRequest{
		ExerciseID: running.ID, DurationMinutes: 30, CaloriesBurned: ptr(-1.0), EntryDate: "2025-03-14",
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.AddEntry(ctx, userID, &exercise.CreateEntryRequest{
		ExerciseID: running.ID, DurationMinutes: 30, EntryDate: "yesterday",
	})
	assert.True(t, errors.IsNotValid(err))
}

func TestCreateExerciseDefaultsCategory(t *testing.T) {
	svc := NewExerciseService(newFakeExerciseRepo())

	created, err := svc.Create(context.Background(), uuid.New(), &exercise.CreateExerciseRequest{
		Name: "Kettlebell Swings", CaloriesPerHour: 500,
	})

	require.NoError(t, err)
	assert.Equal(t, "General", created.Category)
	assert.Equal(t, exercise.SourceManual, created.Source)
}

func TestExerciseOwnershipGates(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo)
	other := uuid.New()
	theirs := repo.addExercise(&other, "Their Routine", 400)
	global := repo.addExercise(nil, "Running", 600)
	ctx := context.Background()

	before := repo.mutations
	err := svc.Delete(ctx, uuid.New(), theirs.ID)
	assert.True(t, errors.IsForbidden(err))

	err = svc.Delete(ctx, uuid.New(), global.ID)
	assert.True(t, errors.IsForbidden(err))

	err = svc.Delete(ctx, uuid.New(), uuid.New())
	assert.True(t, errors.IsNotFound(err))

	assert.Equal(t, before, repo.mutations, "no gate failure may reach the repository")
}

func TestGetForeignExerciseLooksAbsent(t *testing.T) {
	repo := newFakeExerciseRepo()
	svc := NewExerciseService(repo)
	other := uuid.New()
	theirs := repo.addExercise(&other, "Their Routine", 400)

	_, err := svc.Get(context.Background(), uuid.New(), theirs.ID)

	assert.True(t, errors.IsNotFound(err))
}
