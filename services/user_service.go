package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/user"
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// GetPreferences falls back to the defaults for accounts whose row is
// missing; it does not persist the fallback.
func (s *UserService) GetPreferences(ctx context.Context, userID uuid.UUID) (*user.Preferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return user.DefaultPreferences(userID), nil
		}
		return nil, errors.Trace(err)
	}

	return prefs, nil
}

func validWeightUnit(u string) bool      { return u == "kg" || u == "lbs" }
func validMeasurementUnit(u string) bool { return u == "cm" || u == "in" }

func validAutoClear(v string) bool {
	switch v {
	case user.ClearNever, user.Clear7Days, user.Clear30Days, user.ClearAll:
		return true
	}
	return false
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req *user.UpdatePreferencesRequest) (*user.Preferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if req.DateFormat != nil {
		prefs.DateFormat = *req.DateFormat
	}
	if req.DefaultWeightUnit != nil {
		if !validWeightUnit(*req.DefaultWeightUnit) {
			return nil, errors.NotValidf("weight unit %q", *req.DefaultWeightUnit)
		}
		prefs.DefaultWeightUnit = *req.DefaultWeightUnit
	}
	if req.DefaultMeasurementUnit != nil {
		if !validMeasurementUnit(*req.DefaultMeasurementUnit) {
			return nil, errors.NotValidf("measurement unit %q", *req.DefaultMeasurementUnit)
		}
		prefs.DefaultMeasurementUnit = *req.DefaultMeasurementUnit
	}
	if req.Timezone != nil {
		prefs.Timezone = *req.Timezone
	}
	if req.AutoClearHistory != nil {
		if !validAutoClear(*req.AutoClearHistory) {
			return nil, errors.NotValidf("auto clear window %q", *req.AutoClearHistory)
		}
		prefs.AutoClearHistory = *req.AutoClearHistory
	}
	if req.SystemPrompt != nil {
		prefs.SystemPrompt = *req.SystemPrompt
	}

	if err := s.repo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, errors.Trace(err)
	}

	return prefs, nil
}
