package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovushik/SparkyFitness/internal/water"
)

type fakeWaterRepo struct {
	intakes    map[string]int
	containers map[uuid.UUID]*water.Container
	upserts    int
	deletes    int
	primaries  int
}

func newFakeWaterRepo() *fakeWaterRepo {
	return &fakeWaterRepo{
		intakes:    make(map[string]int),
		containers: make(map[uuid.UUID]*water.Container),
	}
}

func (f *fakeWaterRepo) intakeKey(userID uuid.UUID, date time.Time) string {
	return userID.String() + "/" + date.Format(time.DateOnly)
}

func (f *fakeWaterRepo) GetIntake(ctx context.Context, userID uuid.UUID, date time.Time) (*water.Intake, error) {
	ml, ok := f.intakes[f.intakeKey(userID, date)]
	if !ok {
		return nil, errors.NotFoundf("water intake")
	}
	return &water.Intake{UserID: userID, EntryDate: date, WaterML: ml}, nil
}

func (f *fakeWaterRepo) UpsertIntake(ctx context.Context, userID uuid.UUID, date time.Time, waterML int) (*water.Intake, error) {
	f.upserts++
	f.intakes[f.intakeKey(userID, date)] = waterML
	return &water.Intake{UserID: userID, EntryDate: date, WaterML: waterML}, nil
}

func (f *fakeWaterRepo) GetContainer(ctx context.Context, id uuid.UUID) (*water.Container, error) {
	c, ok := f.containers[id]
	if !ok {
		return nil, errors.NotFoundf("water container")
	}
	return c, nil
}

func (f *fakeWaterRepo) ListContainers(ctx context.Context, userID uuid.UUID) ([]*water.Container, error) {
	var out []*water.Container
	for _, c := range f.containers {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeWaterRepo) CreateContainer(ctx context.Context, c *water.Container) error {
	c.ID = uuid.New()
	f.containers[c.ID] = c
	return nil
}

func (f *fakeWaterRepo) UpdateContainer(ctx context.Context, c *water.Container) error {
	f.containers[c.ID] = c
	return nil
}

func (f *fakeWaterRepo) DeleteContainer(ctx context.Context, id uuid.UUID) error {
	f.deletes++
	delete(f.containers, id)
	return nil
}

func (f *fakeWaterRepo) GetContainerOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	c, ok := f.containers[id]
	if !ok {
		return uuid.Nil, errors.NotFoundf("water container")
	}
	return c.UserID, nil
}

func (f *fakeWaterRepo) SetPrimaryContainer(ctx context.Context, userID, id uuid.UUID) error {
	f.primaries++
	for _, c := range f.containers {
		c.IsPrimary = c.ID == id
	}
	return nil
}

func (f *fakeWaterRepo) addContainer(userID uuid.UUID, volume float64, unit string, servings int) *water.Container {
	c := &water.Container{
		ID:                   uuid.New(),
		UserID:               userID,
		Name:                 "bottle",
		Volume:               volume,
		Unit:                 unit,
		ServingsPerContainer: servings,
	}
	f.containers[c.ID] = c
	return c
}

func TestUpsertIntakeFirstDrinkUsesDefaultGlass(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	userID := uuid.New()

	in, err := svc.UpsertIntake(context.Background(), userID, &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, 250, in.WaterML)
}

func TestUpsertIntakeAccumulates(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	userID := uuid.New()
	req := &water.UpsertIntakeRequest{EntryDate: "2025-03-14", ChangeDrinks: 2}

	_, err := svc.UpsertIntake(context.Background(), userID, req)
	require.NoError(t, err)
	in, err := svc.UpsertIntake(context.Background(), userID, req)
	require.NoError(t, err)

	assert.Equal(t, 1000, in.WaterML)
}

func TestUpsertIntakeNeverGoesNegative(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	userID := uuid.New()

	_, err := svc.UpsertIntake(context.Background(), userID, &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: 1,
	})
	require.NoError(t, err)

	in, err := svc.UpsertIntake(context.Background(), userID, &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: -3,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, in.WaterML)
}

func TestUpsertIntakeUsesContainerVolume(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	userID := uuid.New()
	c := repo.addContainer(userID, 600, water.UnitML, 2)

	in, err := svc.UpsertIntake(context.Background(), userID, &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: 1,
		ContainerID:  &c.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 300, in.WaterML)
}

func TestUpsertIntakeConvertsOunces(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	userID := uuid.New()
	// 20 oz over 2 servings is 295.735 ml per drink, rounded to 296
	c := repo.addContainer(userID, 20, water.UnitOz, 2)

	in, err := svc.UpsertIntake(context.Background(), userID, &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: 1,
		ContainerID:  &c.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 296, in.WaterML)
}

func TestUpsertIntakeMissingContainerFallsBack(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	ghost := uuid.New()

	in, err := svc.UpsertIntake(context.Background(), uuid.New(), &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: 1,
		ContainerID:  &ghost,
	})

	require.NoError(t, err)
	assert.Equal(t, 250, in.WaterML)
}

func TestUpsertIntakeIgnoresForeignContainer(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	other := uuid.New()
	c := repo.addContainer(other, 1000, water.UnitML, 1)

	in, err := svc.UpsertIntake(context.Background(), uuid.New(), &water.UpsertIntakeRequest{
		EntryDate:    "2025-03-14",
		ChangeDrinks: 1,
		ContainerID:  &c.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 250, in.WaterML, "another user's container must not set the drink size")
}

func TestUpsertIntakeRejectsBadDate(t *testing.T) {
	svc := NewWaterService(newFakeWaterRepo())

	_, err := svc.UpsertIntake(context.Background(), uuid.New(), &water.UpsertIntakeRequest{
		EntryDate:    "14.03.2025",
		ChangeDrinks: 1,
	})

	assert.True(t, errors.IsNotValid(err))
}

func TestNextTotalML(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		change    int
		perDrink  int
		wantTotal int
	}{
		{"add to empty day", 0, 1, 250, 250},
		{"add two drinks", 500, 2, 250, 1000},
		{"remove one drink", 500, -1, 250, 250},
		{"floor at zero", 250, -3, 250, 0},
		{"no change", 750, 0, 250, 750},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantTotal, nextTotalML(tc.current, tc.change, tc.perDrink))
		})
	}
}

func TestGetIntakeAbsentDayIsZero(t *testing.T) {
	svc := NewWaterService(newFakeWaterRepo())
	userID := uuid.New()
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	in, err := svc.GetIntake(context.Background(), userID, date)

	require.NoError(t, err)
	assert.Equal(t, 0, in.WaterML)
	assert.Equal(t, userID, in.UserID)
}

func TestCreateContainerValidation(t *testing.T) {
	svc := NewWaterService(newFakeWaterRepo())

	_, err := svc.CreateContainer(context.Background(), uuid.New(), &water.ContainerRequest{
		Name: "mug", Volume: 0, ServingsPerContainer: 1,
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.CreateContainer(context.Background(), uuid.New(), &water.ContainerRequest{
		Name: "mug", Volume: 350, Unit: "cups", ServingsPerContainer: 1,
	})
	assert.True(t, errors.IsNotValid(err))
}

func TestContainerOwnershipGate(t *testing.T) {
	repo := newFakeWaterRepo()
	svc := NewWaterService(repo)
	owner := uuid.New()
	c := repo.addContainer(owner, 500, water.UnitML, 1)

	err := svc.DeleteContainer(context.Background(), uuid.New(), c.ID)

	assert.True(t, errors.IsForbidden(err))
	assert.Equal(t, 0, repo.deletes, "forbidden requests must not reach the delete")

	err = svc.DeleteContainer(context.Background(), uuid.New(), uuid.New())
	assert.True(t, errors.IsNotFound(err))
}
