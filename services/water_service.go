package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/sovushik/SparkyFitness/internal/water"
)

type WaterRepository interface {
	GetIntake(ctx context.Context, userID uuid.UUID, date time.Time) (*water.Intake, error)
	UpsertIntake(ctx context.Context, userID uuid.UUID, date time.Time, waterML int) (*water.Intake, error)
	GetContainer(ctx context.Context, id uuid.UUID) (*water.Container, error)
	ListContainers(ctx context.Context, userID uuid.UUID) ([]*water.Container, error)
	CreateContainer(ctx context.Context, c *water.Container) error
	UpdateContainer(ctx context.Context, c *water.Container) error
	DeleteContainer(ctx context.Context, id uuid.UUID) error
	GetContainerOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	SetPrimaryContainer(ctx context.Context, userID, id uuid.UUID) error
}

type WaterService struct {
	repo WaterRepository
}

func NewWaterService(repo WaterRepository) *WaterService {
	return &WaterService{repo: repo}
}

// nextTotalML applies a drink delta to the day's total. Totals never go
// below zero no matter how many drinks are removed.
func nextTotalML(currentML, changeDrinks, perDrinkML int) int {
	total := currentML + changeDrinks*perDrinkML
	if total < 0 {
		return 0
	}
	return total
}

// UpsertIntake adjusts the day's total by whole drinks. The per-drink
// volume comes from the caller's container when one is given and still
// exists; otherwise the default glass applies. The read-modify-write here
// is not atomic across concurrent requests for the same user and day.
func (s *WaterService) UpsertIntake(ctx context.Context, userID uuid.UUID, req *water.UpsertIntakeRequest) (*water.Intake, error) {
	date, err := time.Parse(time.DateOnly, req.EntryDate)
	if err != nil {
		return nil, errors.NotValidf("entry date %q", req.EntryDate)
	}

	current := 0
	if in, err := s.repo.GetIntake(ctx, userID, date); err != nil {
		if !errors.IsNotFound(err) {
			return nil, errors.Trace(err)
		}
	} else {
		current = in.WaterML
	}

	perDrink := water.DefaultDrinkML
	if req.ContainerID != nil {
		c, err := s.repo.GetContainer(ctx, *req.ContainerID)
		if err != nil {
			if !errors.IsNotFound(err) {
				return nil, errors.Trace(err)
			}
			// vanished container: fall back to the default glass
		} else if c.UserID == userID {
			if v := c.DrinkML(); v > 0 {
				perDrink = v
			}
		}
	}

	in, err := s.repo.UpsertIntake(ctx, userID, date, nextTotalML(current, req.ChangeDrinks, perDrink))
	return in, errors.Trace(err)
}

// GetIntake reports a zero total for days with no row yet.
func (s *WaterService) GetIntake(ctx context.Context, userID uuid.UUID, date time.Time) (*water.Intake, error) {
	in, err := s.repo.GetIntake(ctx, userID, date)
	if err != nil {
		if errors.IsNotFound(err) {
			return &water.Intake{UserID: userID, EntryDate: date}, nil
		}
		return nil, errors.Trace(err)
	}

	return in, nil
}

func (s *WaterService) ListContainers(ctx context.Context, userID uuid.UUID) ([]*water.Container, error) {
	containers, err := s.repo.ListContainers(ctx, userID)
	return containers, errors.Trace(err)
}

func validateContainerRequest(req *water.ContainerRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NotValidf("empty container name")
	}
	if req.Volume <= 0 {
		return errors.NotValidf("container volume %v", req.Volume)
	}
	if req.ServingsPerContainer <= 0 {
		return errors.NotValidf("servings per container %d", req.ServingsPerContainer)
	}
	if req.Unit != "" && req.Unit != water.UnitML && req.Unit != water.UnitOz {
		return errors.NotValidf("container unit %q", req.Unit)
	}
	return nil
}

func (s *WaterService) CreateContainer(ctx context.Context, userID uuid.UUID, req *water.ContainerRequest) (*water.Container, error) {
	if err := validateContainerRequest(req); err != nil {
		return nil, errors.Trace(err)
	}

	unit := req.Unit
	if unit == "" {
		unit = water.UnitML
	}

	c := &water.Container{
		UserID:               userID,
		Name:                 strings.TrimSpace(req.Name),
		Volume:               req.Volume,
		Unit:                 unit,
		ServingsPerContainer: req.ServingsPerContainer,
	}

	if err := s.repo.CreateContainer(ctx, c); err != nil {
		return nil, errors.Trace(err)
	}

	return c, nil
}

func (s *WaterService) checkContainerOwner(ctx context.Context, userID, id uuid.UUID) error {
	owner, err := s.repo.GetContainerOwner(ctx, id)
	if err != nil {
		return errors.Trace(err)
	}
	if owner != userID {
		return errors.Forbiddenf("container belongs to another user")
	}
	return nil
}

func (s *WaterService) UpdateContainer(ctx context.Context, userID, id uuid.UUID, req *water.ContainerRequest) (*water.Container, error) {
	if err := s.checkContainerOwner(ctx, userID, id); err != nil {
		return nil, errors.Trace(err)
	}
	if err := validateContainerRequest(req); err != nil {
		return nil, errors.Trace(err)
	}

	c, err := s.repo.GetContainer(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}

	c.Name = strings.TrimSpace(req.Name)
	c.Volume = req.Volume
	if req.Unit != "" {
		c.Unit = req.Unit
	}
	c.ServingsPerContainer = req.ServingsPerContainer

	if err := s.repo.UpdateContainer(ctx, c); err != nil {
		return nil, errors.Trace(err)
	}

	return c, nil
}

func (s *WaterService) DeleteContainer(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkContainerOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.DeleteContainer(ctx, id))
}

func (s *WaterService) SetPrimaryContainer(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.checkContainerOwner(ctx, userID, id); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.repo.SetPrimaryContainer(ctx, userID, id))
}
