package services

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/rs/zerolog/log"

	"github.com/sovushik/SparkyFitness/internal/healthdata"
)

// The dispatcher fans entries out to one sink per measurement kind. Sinks
// are single-method on purpose: a valid entry triggers exactly one write.
type StepSink interface {
	UpsertSteps(ctx context.Context, userID uuid.UUID, date time.Time, steps int) error
}

type WaterSink interface {
	SetIntakeML(ctx context.Context, userID uuid.UUID, date time.Time, waterML int) error
}

type CalorieSink interface {
	UpsertHealthCalories(ctx context.Context, userID uuid.UUID, date time.Time, calories float64) error
}

type HealthDataService struct {
	steps    StepSink
	water    WaterSink
	calories CalorieSink
}

func NewHealthDataService(steps StepSink, water WaterSink, calories CalorieSink) *HealthDataService {
	return &HealthDataService{steps: steps, water: water, calories: calories}
}

// ProcessHealthData stores a provider batch entry by entry. A bad entry
// never aborts the batch: failures are collected and the call returns a
// BatchError alongside the successes so the client sees both lists.
func (s *HealthDataService) ProcessHealthData(ctx context.Context, userID uuid.UUID, entries []healthdata.Entry) ([]healthdata.EntryResult, error) {
	var processed []healthdata.EntryResult
	var entryErrors []healthdata.EntryError

	for i, entry := range entries {
		if err := s.processEntry(ctx, userID, entry); err != nil {
			log.Warn().
				Int("index", i).
				Str("type", entry.Type).
				Err(err).
				Msg("health data entry rejected")
			entryErrors = append(entryErrors, healthdata.EntryError{
				Index:   i,
				Type:    entry.Type,
				Message: err.Error(),
			})
			continue
		}

		processed = append(processed, healthdata.EntryResult{
			Type:   entry.Type,
			Date:   entry.Date,
			Status: "ok",
		})
	}

	if len(entryErrors) > 0 {
		return processed, &healthdata.BatchError{Processed: processed, Errors: entryErrors}
	}

	return processed, nil
}

func (s *HealthDataService) processEntry(ctx context.Context, userID uuid.UUID, entry healthdata.Entry) error {
	if entry.Type == "" {
		return errors.NotValidf("entry type")
	}
	if entry.Value == nil {
		return errors.NotValidf("entry value")
	}
	date, err := time.Parse(time.DateOnly, entry.Date)
	if err != nil {
		return errors.NotValidf("entry date %q", entry.Date)
	}

	switch entry.Type {
	case healthdata.TypeStep:
		steps, err := intValue(entry.Value)
		if err != nil {
			return errors.Trace(err)
		}
		if steps < 0 {
			return errors.NotValidf("step count %d", steps)
		}
		return errors.Trace(s.steps.UpsertSteps(ctx, userID, date, steps))

	case healthdata.TypeWater:
		ml, err := intValue(entry.Value)
		if err != nil {
			return errors.Trace(err)
		}
		if ml < 0 {
			return errors.NotValidf("water volume %d", ml)
		}
		return errors.Trace(s.water.SetIntakeML(ctx, userID, date, ml))

	case healthdata.TypeActiveCalories:
		calories, err := floatValue(entry.Value)
		if err != nil {
			return errors.Trace(err)
		}
		if calories < 0 {
			return errors.NotValidf("calorie value %v", calories)
		}
		return errors.Trace(s.calories.UpsertHealthCalories(ctx, userID, date, calories))
	}

	return errors.NotSupportedf("health data type %q", entry.Type)
}

// intValue accepts JSON numbers (delivered as float64) and digit strings;
// fractional values don't silently truncate.
func intValue(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, errors.NotValidf("non-integer value %v", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, errors.NotValidf("numeric value %q", n)
		}
		return i, nil
	case int:
		return n, nil
	}
	return 0, errors.NotValidf("value of type %T", v)
}

func floatValue(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errors.NotValidf("numeric value %q", n)
		}
		return f, nil
	case int:
		return float64(n), nil
	}
	return 0, errors.NotValidf("value of type %T", v)
}
