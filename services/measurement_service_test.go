package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovushik/SparkyFitness/internal/measurement"
)

type fakeMeasurementRepo struct {
	checkIns   map[string]*measurement.CheckIn
	categories map[uuid.UUID]*measurement.CustomCategory
	entries    map[uuid.UUID]*measurement.CustomEntry
	mutations  int
}

func newFakeMeasurementRepo() *fakeMeasurementRepo {
	return &fakeMeasurementRepo{
		checkIns:   make(map[string]*measurement.CheckIn),
		categories: make(map[uuid.UUID]*measurement.CustomCategory),
		entries:    make(map[uuid.UUID]*measurement.CustomEntry),
	}
}

func checkInKey(userID uuid.UUID, date time.Time) string {
	return userID.String() + "/" + date.Format(time.DateOnly)
}

func (f *fakeMeasurementRepo) UpsertCheckIn(ctx context.Context, c *measurement.CheckIn) (*measurement.CheckIn, error) {
	f.mutations++
	key := checkInKey(c.UserID, c.EntryDate)
	existing, ok := f.checkIns[key]
	if !ok {
		c.ID = uuid.New()
		f.checkIns[key] = c
		return c, nil
	}

	// same merge rule as the real table: explicit fields win, the rest keep
	// their stored value
	if c.Weight != nil {
		existing.Weight = c.Weight
	}
	if c.Neck != nil {
		existing.Neck = c.Neck
	}
	if c.Waist != nil {
		existing.Waist = c.Waist
	}
	if c.Hips != nil {
		existing.Hips = c.Hips
	}
	if c.Steps != nil {
		existing.Steps = c.Steps
	}
	return existing, nil
}

func (f *fakeMeasurementRepo) GetCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) (*measurement.CheckIn, error) {
	c, ok := f.checkIns[checkInKey(userID, date)]
	if !ok {
		return nil, errors.NotFoundf("check-in")
	}
	return c, nil
}

func (f *fakeMeasurementRepo) ListCheckIns(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*measurement.CheckIn, error) {
	var out []*measurement.CheckIn
	for _, c := range f.checkIns {
		if c.UserID == userID && !c.EntryDate.Before(from) && !c.EntryDate.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeMeasurementRepo) DeleteCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) error {
	f.mutations++
	key := checkInKey(userID, date)
	if _, ok := f.checkIns[key]; !ok {
		return errors.NotFoundf("check-in")
	}
	delete(f.checkIns, key)
	return nil
}

func (f *fakeMeasurementRepo) CreateCategory(ctx context.Context, c *measurement.CustomCategory) error {
	f.mutations++
	c.ID = uuid.New()
	f.categories[c.ID] = c
	return nil
}

func (f *fakeMeasurementRepo) ListCategories(ctx context.Context, userID uuid.UUID) ([]*measurement.CustomCategory, error) {
	var out []*measurement.CustomCategory
	for _, c := range f.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeMeasurementRepo) GetCategoryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, ok := f.categories[id]
	if !ok {
		return uuid.Nil, errors.NotFoundf("category")
	}
	return c.UserID, nil
}

func (f *fakeMeasurementRepo) UpdateCategory(ctx context.Context, c *measurement.CustomCategory) error {
	f.mutations++
	f.categories[c.ID] = c
	return nil
}

func (f *fakeMeasurementRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	f.mutations++
	delete(f.categories, id)
	return nil
}

func (f *fakeMeasurementRepo) CreateEntry(ctx context.Context, e *measurement.CustomEntry) error {
	f.mutations++
	e.ID = uuid.New()
	f.entries[e.ID] = e
	return nil
}

func (f *fakeMeasurementRepo) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*measurement.CustomEntry, error) {
	var out []*measurement.CustomEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.EntryDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeMeasurementRepo) ListEntriesByCategory(ctx context.Context, userID, categoryID uuid.UUID, from, to time.Time) ([]*measurement.CustomEntry, error) {
	var out []*measurement.CustomEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.CategoryID == categoryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeMeasurementRepo) GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	e, ok := f.entries[id]
	if !ok {
		return uuid.Nil, errors.NotFoundf("measurement")
	}
	return e.UserID, nil
}

func (f *fakeMeasurementRepo) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	f.mutations++
	delete(f.entries, id)
	return nil
}

func (f *fakeMeasurementRepo) addCategory(userID uuid.UUID, name string) *measurement.CustomCategory {
	c := &measurement.CustomCategory{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Frequency: measurement.FrequencyDaily,
	}
	f.categories[c.ID] = c
	return c
}

func TestUpsertCheckInMergesPartialFields(t *testing.T) {
	repo := newFakeMeasurementRepo()
	svc := NewMeasurementService(repo)
	userID := uuid.New()

	_, err := svc.UpsertCheckIn(context.Background(), userID, &measurement.UpsertCheckInRequest{
		EntryDate: "2025-03-14",
		Weight:    ptr(82.5),
	})
	require.NoError(t, err)

	// a later steps-only check-in must not wipe the morning weight
	stored, err := svc.UpsertCheckIn(context.Background(), userID, &measurement.UpsertCheckInRequest{
		EntryDate: "2025-03-14",
		Steps:     ptr(9200),
	})
	require.NoError(t, err)

	require.NotNil(t, stored.Weight)
	assert.Equal(t, 82.5, *stored.Weight)
	require.NotNil(t, stored.Steps)
	assert.Equal(t, 9200, *stored.Steps)
}

func TestUpsertCheckInValidation(t *testing.T) {
	svc := NewMeasurementService(newFakeMeasurementRepo())
	userID := uuid.New()

	_, err := svc.UpsertCheckIn(context.Background(), userID, &measurement.UpsertCheckInRequest{
		EntryDate: "2025-03-14",
		Weight:    ptr(-3.0),
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.UpsertCheckIn(context.Background(), userID, &measurement.UpsertCheckInRequest{
		EntryDate: "2025-03-14",
		Steps:     ptr(-100),
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.UpsertCheckIn(context.Background(), userID, &measurement.UpsertCheckInRequest{
		EntryDate: "March 14",
	})
	assert.True(t, errors.IsNotValid(err))
}

func TestCreateCategoryRejectsUnknownFrequency(t *testing.T) {
	svc := NewMeasurementService(newFakeMeasurementRepo())

	_, err := svc.CreateCategory(context.Background(), uuid.New(), &measurement.CategoryRequest{
		Name:      "Blood Pressure",
		Frequency: "Weekly",
	})

	assert.True(t, errors.IsNotValid(err))
}

func TestCreateEntryRequiresOwnCategory(t *testing.T) {
	repo := newFakeMeasurementRepo()
	svc := NewMeasurementService(repo)
	other := uuid.New()
	category := repo.addCategory(other, "Blood Pressure")

	_, err := svc.CreateEntry(context.Background(), uuid.New(), &measurement.CreateEntryRequest{
		CategoryID: category.ID,
		Value:      120,
		EntryDate:  "2025-03-14",
	})

	assert.True(t, errors.IsForbidden(err))
	assert.Equal(t, 0, repo.mutations, "forbidden entries must never be written")
}

func TestCreateEntryMissingCategoryIsNotFound(t *testing.T) {
	repo := newFakeMeasurementRepo()
	svc := NewMeasurementService(repo)

	_, err := svc.CreateEntry(context.Background(), uuid.New(), &measurement.CreateEntryRequest{
		CategoryID: uuid.New(),
		Value:      120,
		EntryDate:  "2025-03-14",
	})

	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 0, repo.mutations)
}

func TestCreateEntryValidatesHour(t *testing.T) {
	repo := newFakeMeasurementRepo()
	svc := NewMeasurementService(repo)
	userID := uuid.New()
	category := repo.addCategory(userID, "Blood Pressure")

	_, err := svc.CreateEntry(context.Background(), userID, &measurement.CreateEntryRequest{
		CategoryID: category.ID,
		Value:      120,
		EntryDate:  "2025-03-14",
		EntryHour:  ptr(24),
	})

	assert.True(t, errors.IsNotValid(err))
}

func TestUpdateCategoryOwnershipGate(t *testing.T) {
	repo := newFakeMeasurementRepo()
	svc := NewMeasurementService(repo)
	other := uuid.New()
	category := repo.addCategory(other, "Blood Pressure")

	before := repo.mutations
	_, err := svc.UpdateCategory(context.Background(), uuid.New(), category.ID, &measurement.CategoryRequest{
		Name:      "Stolen",
		Frequency: measurement.FrequencyDaily,
	})

	assert.True(t, errors.IsForbidden(err))
	assert.Equal(t, before, repo.mutations)
}

func TestDeleteEntryOwnershipGate(t *testing.T) {
	repo := newFakeMeasurementRepo()
	svc := NewMeasurementService(repo)
	other := uuid.New()
	e := &measurement.CustomEntry{ID: uuid.New(), UserID: other}
	repo.entries[e.ID] = e

	err := svc.DeleteEntry(context.Background(), uuid.New(), e.ID)

	assert.True(t, errors.IsForbidden(err))
	assert.Contains(t, repo.entries, e.ID, "the row must survive a forbidden delete")
}

func TestListCheckInsRejectsInvertedRange(t *testing.T) {
	svc := NewMeasurementService(newFakeMeasurementRepo())

	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -7)
	_, err := svc.ListCheckIns(context.Background(), uuid.New(), from, to)

	assert.True(t, errors.IsNotValid(err))
}
