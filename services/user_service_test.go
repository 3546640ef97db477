package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovushik/SparkyFitness/internal/user"
)

func TestGetPreferencesFallsBackToDefaults(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	userID := uuid.New()

	prefs, err := svc.GetPreferences(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, "yyyy-MM-dd", prefs.DateFormat)
	assert.Equal(t, "kg", prefs.DefaultWeightUnit)
	assert.Equal(t, "cm", prefs.DefaultMeasurementUnit)
	assert.Equal(t, user.ClearNever, prefs.AutoClearHistory)
	assert.Empty(t, repo.prefs, "the fallback is not written back")
}

func TestUpdatePreferencesValidatesEnums(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	userID := uuid.New()

	_, err := svc.UpdatePreferences(context.Background(), userID, &user.UpdatePreferencesRequest{
		DefaultWeightUnit: ptr("stone"),
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.UpdatePreferences(context.Background(), userID, &user.UpdatePreferencesRequest{
		DefaultMeasurementUnit: ptr("feet"),
	})
	assert.True(t, errors.IsNotValid(err))

	_, err = svc.UpdatePreferences(context.Background(), userID, &user.UpdatePreferencesRequest{
		AutoClearHistory: ptr("sometimes"),
	})
	assert.True(t, errors.IsNotValid(err))
}

func TestUpdatePreferencesPartialUpdate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)
	userID := uuid.New()

	prefs, err := svc.UpdatePreferences(context.Background(), userID, &user.UpdatePreferencesRequest{
		DefaultWeightUnit: ptr("lbs"),
		Timezone:          ptr("Europe/Berlin"),
	})

	require.NoError(t, err)
	assert.Equal(t, "lbs", prefs.DefaultWeightUnit)
	assert.Equal(t, "Europe/Berlin", prefs.Timezone)
	// untouched fields keep their defaults
	assert.Equal(t, "yyyy-MM-dd", prefs.DateFormat)
	assert.Equal(t, "cm", prefs.DefaultMeasurementUnit)

	stored, err := repo.GetPreferences(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "lbs", stored.DefaultWeightUnit)
}

func TestUpdatePreferencesAutoClearWindows(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	userID := uuid.New()

	for _, window := range []string{user.ClearNever, user.Clear7Days, user.Clear30Days, user.ClearAll} {
		prefs, err := svc.UpdatePreferences(context.Background(), userID, &user.UpdatePreferencesRequest{
			AutoClearHistory: ptr(window),
		})
		require.NoError(t, err, window)
		assert.Equal(t, window, prefs.AutoClearHistory)
	}
}
