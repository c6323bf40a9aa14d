package services

import (
	"context"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
)

type BoosterService interface {
	Create(ctx context.Context, input BoosterInput) (*models.Booster, error)
	Get(ctx context.Context, id string) (*models.Booster, error)
	List(ctx context.Context, kind *models.BoosterKind) ([]models.Booster, error)
	Update(ctx context.Context, id string, input BoosterInput) (*models.Booster, error)
	Delete(ctx context.Context, id string) error
}

type BoosterInput struct {
	Name            string             `json:"name" validate:"required,max=100"`
	Icon            string             `json:"icon" validate:"max=16"`
	Description     string             `json:"description" validate:"max=500"`
	DurationMinutes *int               `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=120"`
	Kind            models.BoosterKind `json:"kind" validate:"required,oneof=booster maddie"`
}

type boosterService struct {
	boosterRepo repositories.BoosterRepository
}

func NewBoosterService(boosterRepo repositories.BoosterRepository) BoosterService {
	return &boosterService{boosterRepo: boosterRepo}
}

func (s *boosterService) Create(ctx context.Context, input BoosterInput) (*models.Booster, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	b := boosterFromInput(input)
	if err := s.boosterRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *boosterService) Get(ctx context.Context, id string) (*models.Booster, error) {
	b, err := s.boosterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return b, nil
}

func (s *boosterService) List(ctx context.Context, kind *models.BoosterKind) ([]models.Booster, error) {
	if kind != nil && *kind != models.BoosterKindBooster && *kind != models.BoosterKindMaddie {
		return nil, ErrValidationFailed
	}
	return s.boosterRepo.List(ctx, kind)
}

func (s *boosterService) Update(ctx context.Context, id string, input BoosterInput) (*models.Booster, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	b := boosterFromInput(input)
	b.ID = id
	if err := s.boosterRepo.Update(ctx, b); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.Get(ctx, id)
}

func (s *boosterService) Delete(ctx context.Context, id string) error {
	return handleRepositoryError(s.boosterRepo.Delete(ctx, id))
}

func boosterFromInput(input BoosterInput) *models.Booster {
	return &models.Booster{
		Name:            input.Name,
		Icon:            input.Icon,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		Kind:            input.Kind,
	}
}
