package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/measurement"
)

type MeasurementRepository interface {
	UpsertCheckIn(ctx context.Context, c *measurement.CheckIn) (*measurement.CheckIn, error)
	GetCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) (*measurement.CheckIn, error)
	ListCheckIns(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*measurement.CheckIn, error)
	DeleteCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) error
	CreateCategory(ctx context.Context, c *measurement.CustomCategory) error
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*measurement.CustomCategory, error)
	GetCategoryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	UpdateCategory(ctx context.Context, c *measurement.CustomCategory) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateEntry(ctx context.Context, e *measurement.CustomEntry) error
	ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*measurement.CustomEntry, error)
	ListEntriesByCategory(ctx context.Context, userID, categoryID uuid.UUID, from, to time.Time) ([]*measurement.CustomEntry, error)
	GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

type MeasurementService struct {
	repo MeasurementRepository
}

func NewMeasurementService(repo MeasurementRepository) *MeasurementService {
	return &MeasurementService{repo: repo}
}

func positiveIfSet(name string, v *float64) error {
	if v != nil && *v <= 0 {
		return errors.NotValidf("%s %v", name, *v)
	}
	return nil
}

func (s *MeasurementService) UpsertCheckIn(ctx context.Context, userID uuid.UUID, req *measurement.UpsertCheckInRequest) (*measurement.CheckIn, error) {
	date, err := time.Parse(time.DateOnly, req.EntryDate)
	if err != nil {
		return nil, errors.NotValidf("entry date %q", req.EntryDate)
	}

	for name, v := range map[string]*float64{
		"weight": req.Weight,
		"neck":   req.Neck,
		"waist":  req.Waist,
		"hips":   req.Hips,
	} {
		if err := positiveIfSet(name, v); err != nil {
			return nil, errors.Trace(err)
		}
	}
	if req.Steps != nil && *req.Steps < 0 {
		return nil, errors.NotValidf("steps %d", *req.Steps)
	}

	c := &measurement.CheckIn{
		UserID:    userID,
		EntryDate: date,
		Weight:    req.Weight,
		Neck:      req.Neck,
		Waist:     req.Waist,
		Hips:      req.Hips,
		Steps:     req.Steps,
	}

	stored, err := s.repo.UpsertCheckIn(ctx, c)
	return stored, errors.Trace(err)
}

func (s *MeasurementService) GetCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) (*measurement.CheckIn, error) {
	c, err := s.repo.GetCheckIn(ctx, userID, date)
	return c, errors.Trace(err)
}

func (s *MeasurementService) ListCheckIns(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*measurement.CheckIn, error) {
	if to.Before(from) {
		return nil, errors.NotValidf("range end before start")
	}
	checkIns, err := s.repo.ListCheckIns(ctx, userID, from, to)
	return checkIns, errors.Trace(err)
}

func (s *MeasurementService) DeleteCheckIn(ctx context.Context, userID uuid.UUID, date time.Time) error {
	return errors.Trace(s.repo.DeleteCheckIn(ctx, userID, date))
}

func validateCategoryRequest(req *measurement.CategoryRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NotValidf("empty category name")
	}
	if !measurement.ValidFrequency(req.Frequency) {
		return errors.NotValidf("frequency %q", req.Frequency)
	}
	return nil
}

func (s *MeasurementService) CreateCategory(ctx context.Context, userID uuid.UUID, req *measurement.CategoryRequest) (*measurement.CustomCategory, error) {
	if err := validateCategoryRequest(req); err != nil {
		return nil, errors.Trace(err)
	}

	c := &measurement.CustomCategory{
		UserID:          userID,
		Name:            strings.TrimSpace(req.Name),
		MeasurementType: strings.TrimSpace(req.MeasurementType),
		Frequency:       req.Frequency,
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, errors.Trace(err)
	}

	return c, nil
}

func (s *MeasurementService) ListCategories(ctx context.Context, userID uuid.UUID) ([]*measurement.CustomCategory, error) {
	categories, err := s.repo.ListCategories(ctx, userID)
	return categories, errors.Trace(err)
}

// checkCategoryOwner guards category mutations: absent rows surface as
// NotFound before the Forbidden comparison ever runs.
func (s *MeasurementService) checkCategoryOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetCategoryOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Forbiddenf("category belongs to another user")
	}
	return nil
}

func (s *MeasurementService) UpdateCategory(ctx context.Context, userID, id uuid.UUID, req *measurement.CategoryRequest) (*measurement.CustomCategory, error) {
	if err := s.checkCategoryOwner(ctx, userID, id); err != nil {
		return nil, errors.Trace(err)
	}
	if err := validateCategoryRequest(req); err != nil {
		return nil, errors.Trace(err)
	}

	c := &measurement.CustomCategory{
		ID:              id,
		UserID:          userID,
		Name:            strings.TrimSpace(req.Name),
		MeasurementType: strings.TrimSpace(req.MeasurementType),
		Frequency:       req.Frequency,
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, errors.Trace(err)
	}

	return c, nil
}

func (s *MeasurementService) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkCategoryOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteCategory(ctx, id))
}

func (s *MeasurementService) CreateEntry(ctx context.Context, userID uuid.UUID, req *measurement.CreateEntryRequest) (*measurement.CustomEntry, error) {
	// entries may only land in the caller's own categories
	if err := s.checkCategoryOwner(ctx, userID, req.CategoryID); err != nil {
		return nil, errors.Trace(err)
	}

	date, err := time.Parse(time.DateOnly, req.EntryDate)
	if err != nil {
		return nil, errors.NotValidf("entry date %q", req.EntryDate)
	}
	if req.EntryHour != nil && (*req.EntryHour < 0 || *req.EntryHour > 23) {
		return nil, errors.NotValidf("entry hour %d", *req.EntryHour)
	}

	e := &measurement.CustomEntry{
		UserID:         userID,
		CategoryID:     req.CategoryID,
		Value:          req.Value,
		EntryDate:      date,
		EntryHour:      req.EntryHour,
		EntryTimestamp: time.Now().UTC(),
	}

	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return nil, errors.Trace(err)
	}

	return e, nil
}

func (s *MeasurementService) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*measurement.CustomEntry, error) {
	entries, err := s.repo.ListEntriesByDate(ctx, userID, date)
	return entries, errors.Trace(err)
}

func (s *MeasurementService) ListEntriesByCategory(ctx context.Context, userID, categoryID uuid.UUID, from, to time.Time) ([]*measurement.CustomEntry, error) {
	if err := s.checkCategoryOwner(ctx, userID, categoryID); err != nil {
		return nil, errors.Trace(err)
	}
	if to.Before(from) {
		return nil, errors.NotValidf("range end before start")
	}

	entries, err := s.repo.ListEntriesByCategory(ctx, userID, categoryID, from, to)
	return entries, errors.Trace(err)
}

func (s *MeasurementService) DeleteEntry(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetEntryOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Forbiddenf("measurement belongs to another user")
	}

	return errors.Trace(s.repo.DeleteEntry(ctx, id))
}
