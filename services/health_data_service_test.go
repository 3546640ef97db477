package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovushik/SparkyFitness/internal/healthdata"
)

type sinkWrite struct {
	date  time.Time
	value float64
}

// recordingSinks captures every write the dispatcher hands to storage.
type recordingSinks struct {
	steps    []sinkWrite
	water    []sinkWrite
	calories []sinkWrite
	failWith error
}

func (r *recordingSinks) UpsertSteps(ctx context.Context, userID uuid.UUID, date time.Time, steps int) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.steps = append(r.steps, sinkWrite{date: date, value: float64(steps)})
	return nil
}

func (r *recordingSinks) SetIntakeML(ctx context.Context, userID uuid.UUID, date time.Time, waterML int) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.water = append(r.water, sinkWrite{date: date, value: float64(waterML)})
	return nil
}

func (r *recordingSinks) UpsertHealthCalories(ctx context.Context, userID uuid.UUID, date time.Time, calories float64) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.calories = append(r.calories, sinkWrite{date: date, value: calories})
	return nil
}

func (r *recordingSinks) totalWrites() int {
	return len(r.steps) + len(r.water) + len(r.calories)
}

func newHealthDataService() (*HealthDataService, *recordingSinks) {
	sinks := &recordingSinks{}
	return NewHealthDataService(sinks, sinks, sinks), sinks
}

func TestProcessHealthDataStoresSteps(t *testing.T) {
	svc, sinks := newHealthDataService()

	results, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{
		{Type: "step", Value: float64(5312), Date: "2025-03-14"},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Status)

	require.Len(t, sinks.steps, 1)
	assert.Equal(t, float64(5312), sinks.steps[0].value)
	assert.Equal(t, 1, sinks.totalWrites(), "a valid entry makes exactly one write")
}

func TestProcessHealthDataStoresWater(t *testing.T) {
	svc, sinks := newHealthDataService()

	_, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{
		{Type: "water", Value: float64(1500), Date: "2025-03-14"},
	})

	require.NoError(t, err)
	require.Len(t, sinks.water, 1)
	assert.Equal(t, float64(1500), sinks.water[0].value)
	assert.Equal(t, 1, sinks.totalWrites())
}

func TestProcessHealthDataStoresActiveCalories(t *testing.T) {
	svc, sinks := newHealthDataService()

	_, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{
		{Type: "Active Calories", Value: 350.5, Date: "2025-03-14"},
	})

	require.NoError(t, err)
	require.Len(t, sinks.calories, 1)
	assert.Equal(t, 350.5, sinks.calories[0].value)
	assert.Equal(t, 1, sinks.totalWrites())
}

func TestProcessHealthDataUnknownTypeNeverStored(t *testing.T) {
	svc, sinks := newHealthDataService()

	results, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{
		{Type: "heart_rate", Value: float64(72), Date: "2025-03-14"},
	})

	assert.Empty(t, results)
	assert.Equal(t, 0, sinks.totalWrites(), "unknown types must not reach storage")

	var batch *healthdata.BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, "heart_rate", batch.Errors[0].Type)
	assert.Contains(t, batch.Errors[0].Message, "not supported")
}

func TestProcessHealthDataMixedBatch(t *testing.T) {
	svc, sinks := newHealthDataService()

	results, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{
		{Type: "step", Value: float64(5000), Date: "2025-03-14"},
		{Type: "foo", Value: float64(1), Date: "2025-03-14"},
	})

	// the valid entry lands even though its neighbor fails
	require.Len(t, results, 1)
	assert.Equal(t, "step", results[0].Type)
	require.Len(t, sinks.steps, 1)
	assert.Equal(t, 1, sinks.totalWrites())

	var batch *healthdata.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Len(t, batch.Processed, 1)
	require.Len(t, batch.Errors, 1)
	assert.Equal(t, 1, batch.Errors[0].Index)
	assert.Equal(t, "foo", batch.Errors[0].Type)
}

func TestProcessHealthDataValueCoercion(t *testing.T) {
	tests := []struct {
		name  string
		entry healthdata.Entry
		ok    bool
	}{
		{"integral float steps", healthdata.Entry{Type: "step", Value: float64(5000), Date: "2025-03-14"}, true},
		{"digit string steps", healthdata.Entry{Type: "step", Value: "5000", Date: "2025-03-14"}, true},
		{"fractional steps", healthdata.Entry{Type: "step", Value: 5000.5, Date: "2025-03-14"}, false},
		{"negative steps", healthdata.Entry{Type: "step", Value: float64(-10), Date: "2025-03-14"}, false},
		{"non-numeric string", healthdata.Entry{Type: "water", Value: "a lot", Date: "2025-03-14"}, false},
		{"boolean value", healthdata.Entry{Type: "water", Value: true, Date: "2025-03-14"}, false},
		{"missing value", healthdata.Entry{Type: "step", Value: nil, Date: "2025-03-14"}, false},
		{"negative calories", healthdata.Entry{Type: "Active Calories", Value: -12.5, Date: "2025-03-14"}, false},
		{"zero calories", healthdata.Entry{Type: "Active Calories", Value: float64(0), Date: "2025-03-14"}, true},
		{"bad date", healthdata.Entry{Type: "step", Value: float64(100), Date: "14-03-2025"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, sinks := newHealthDataService()

			results, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{tc.entry})

			if tc.ok {
				assert.NoError(t, err)
				assert.Len(t, results, 1)
				assert.Equal(t, 1, sinks.totalWrites())
			} else {
				assert.Error(t, err)
				assert.Empty(t, results)
				assert.Equal(t, 0, sinks.totalWrites())
			}
		})
	}
}

func TestProcessHealthDataSinkFailureIsCollected(t *testing.T) {
	sinks := &recordingSinks{failWith: errors.New("connection reset")}
	svc := NewHealthDataService(sinks, sinks, sinks)

	results, err := svc.ProcessHealthData(context.Background(), uuid.New(), []healthdata.Entry{
		{Type: "step", Value: float64(5000), Date: "2025-03-14"},
	})

	assert.Empty(t, results)

	var batch *healthdata.BatchError
	require.ErrorAs(t, err, &batch)
	require.Len(t, batch.Errors, 1)
	assert.Contains(t, batch.Errors[0].Message, "connection reset")
}

func TestProcessHealthDataEmptyBatch(t *testing.T) {
	svc, sinks := newHealthDataService()

	results, err := svc.ProcessHealthData(context.Background(), uuid.New(), nil)

	assert.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, sinks.totalWrites())
}

func TestBatchErrorMessage(t *testing.T) {
	err := &healthdata.BatchError{
		Processed: []healthdata.EntryResult{{Type: "step"}},
		Errors:    []healthdata.EntryError{{Type: "foo"}, {Type: "bar"}},
	}

	assert.Equal(t, "health data batch: 1 stored, 2 failed", err.Error())
}
