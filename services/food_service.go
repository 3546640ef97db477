package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/food"
	"github.com/sovushik/SparkyFitness/utils"
)

type FoodRepository interface {
	SearchFoods(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*food.Food, error)
	GetFood(ctx context.Context, id uuid.UUID) (*food.Food, error)
	CreateFood(ctx context.Context, f *food.Food) error
	UpdateFood(ctx context.Context, f *food.Food) error
	DeleteFood(ctx context.Context, id uuid.UUID) error
	GetFoodOwner(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	CreateEntry(ctx context.Context, e *food.Entry) error
	ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]*food.EntryWithFood, error)
	GetEntryOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	UpdateEntry(ctx context.Context, id uuid.UUID, mealType *string, quantity *float64, unit *string) error
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type FoodService struct {
	repo FoodRepository
}

func NewFoodService(repo FoodRepository) *FoodService {
	return &FoodService{repo: repo}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

func (s *FoodService) Search(ctx context.Context, userID uuid.UUID, search string, limit int) ([]*food.Food, error) {
	foods, err := s.repo.SearchFoods(ctx, userID, strings.TrimSpace(search), clampLimit(limit))
	return foods, errors.Trace(err)
}

func validateFoodRequest(req *food.CreateFoodRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NotValidf("empty food name")
	}
	if req.Calories < 0 || req.ProteinG < 0 || req.CarbsG < 0 || req.FatG < 0 {
		return errors.NotValidf("negative nutrient value")
	}
	if req.ServingSize <= 0 {
		return errors.NotValidf("serving size %v", req.ServingSize)
	}
	return nil
}

func (s *FoodService) Create(ctx context.Context, userID uuid.UUID, req *food.CreateFoodRequest) (*food.Food, error) {
	if err := validateFoodRequest(req); err != nil {
		return nil, errors.Trace(err)
	}

	unit := req.ServingUnit
	if unit == "" {
		unit = "g"
	}

	f := &food.Food{
		OwnerID:          &userID,
		Name:             strings.TrimSpace(req.Name),
		Brand:            strings.TrimSpace(req.Brand),
		Calories:         req.Calories,
		ProteinG:         req.ProteinG,
		CarbsG:           req.CarbsG,
		FatG:             req.FatG,
		ServingSize:      req.ServingSize,
		ServingUnit:      unit,
		IsCustom:         true,
		SharedWithPublic: req.SharedWithPublic,
	}

	if err := s.repo.CreateFood(ctx, f); err != nil {
		return nil, errors.Trace(err)
	}

	return f, nil
}

func visibleTo(f *food.Food, userID uuid.UUID) bool {
	return f.OwnerID == nil || *f.OwnerID == userID || f.SharedWithPublic
}

// Get hides other users' private foods behind NotFound rather than
// Forbidden so responses don't confirm the row exists.
func (s *FoodService) Get(ctx context.Context, userID, id uuid.UUID) (*food.Food, error) {
	f, err := s.repo.GetFood(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !visibleTo(f, userID) {
		return nil, errors.NotFoundf("food")
	}
	return f, nil
}

// checkFoodOwner is the mutation gate: absent → NotFound, global or
// someone else's → Forbidden.
func (s *FoodService) checkFoodOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetFoodOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner == nil {
		return errors.Forbiddenf("global food is read-only")
	}
	if *owner != userID {
		return errors.Forbiddenf("food belongs to another user")
	}
	return nil
}

func (s *FoodService) Update(ctx context.Context, userID, id uuid.UUID, req *food.CreateFoodRequest) (*food.Food, error) {
	if err := s.checkFoodOwner(ctx, userID, id); err != nil {
		return nil, errors.Trace(err)
	}
	if err := validateFoodRequest(req); err != nil {
		return nil, errors.Trace(err)
	}

	f, err := s.repo.GetFood(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}

	f.Name = strings.TrimSpace(req.Name)
	f.Brand = strings.TrimSpace(req.Brand)
	f.Calories = req.Calories
	f.ProteinG = req.ProteinG
	f.CarbsG = req.CarbsG
	f.FatG = req.FatG
	f.ServingSize = req.ServingSize
	if req.ServingUnit != "" {
		f.ServingUnit = req.ServingUnit
	}
	f.SharedWithPublic = req.SharedWithPublic

	if err := s.repo.UpdateFood(ctx, f); err != nil {
		return nil, errors.Trace(err)
	}

	return f, nil
}

func (s *FoodService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkFoodOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteFood(ctx, id))
}

func (s *FoodService) AddEntry(ctx context.Context, userID uuid.UUID, req *food.CreateEntryRequest) (*food.Entry, error) {
	if !food.ValidMealType(req.MealType) {
		return nil, errors.NotValidf("meal type %q", req.MealType)
	}
	if req.Quantity <= 0 {
		return nil, errors.NotValidf("quantity %v", req.Quantity)
	}
	date, err := time.Parse(time.DateOnly, req.EntryDate)
	if err != nil {
		return nil, errors.NotValidf("entry date %q", req.EntryDate)
	}

	f, err := s.Get(ctx, userID, req.FoodID)
	if err != nil {
		return nil, errors.Trace(err)
	}

	unit := req.Unit
	if unit == "" {
		unit = f.ServingUnit
	}

	e := &food.Entry{
		UserID:    userID,
		FoodID:    f.ID,
		MealType:  req.MealType,
		Quantity:  req.Quantity,
		Unit:      unit,
		EntryDate: date,
	}

	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return nil, errors.Trace(err)
	}

	return e, nil
}

func (s *FoodService) ListEntriesByDate(ctx context.Context, userID uuid.UUID, date time.Time) (*food.DayLog, error) {
	entries, err := s.repo.ListEntriesByDate(ctx, userID, date)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return &food.DayLog{
		Entries: entries,
		Totals:  utils.DayTotals(entries),
	}, nil
}

func (s *FoodService) checkEntryOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetEntryOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Forbiddenf("food entry belongs to another user")
	}
	return nil
}

func (s *FoodService) UpdateEntry(ctx context.Context, userID, id uuid.UUID, req *food.UpdateEntryRequest) error {
	if err := s.checkEntryOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}

	if req.MealType != nil && !food.ValidMealType(*req.MealType) {
		return errors.NotValidf("meal type %q", *req.MealType)
	}
	if req.Quantity != nil && *req.Quantity <= 0 {
		return errors.NotValidf("quantity %v", *req.Quantity)
	}

	return errors.Trace(s.repo.UpdateEntry(ctx, id, req.MealType, req.Quantity, req.Unit))
}

func (s *FoodService) DeleteEntry(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkEntryOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteEntry(ctx, id))
}
