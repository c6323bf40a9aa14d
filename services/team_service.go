package services

import (
	"context"
	"strings"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
)

type TeamService interface {
	Create(ctx context.Context, input TeamInput) (*models.Team, error)
	Get(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, id string, input TeamInput) (*models.Team, error)
	Delete(ctx context.Context, id string) error
}

type TeamInput struct {
	Name    string          `json:"name" validate:"required,max=100"`
	Players []models.Player `json:"players" validate:"dive"`
	LogoURL *string         `json:"logo_url,omitempty" validate:"omitempty,url"`
}

type teamService struct {
	teamRepo repositories.TeamRepository
}

func NewTeamService(teamRepo repositories.TeamRepository) TeamService {
	return &teamService{teamRepo: teamRepo}
}

func (s *teamService) Create(ctx context.Context, input TeamInput) (*models.Team, error) {
	team, err := s.build(input)
	if err != nil {
		return nil, err
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, handleRepositoryError(err)
	}
	return team, nil
}

func (s *teamService) Get(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	return s.teamRepo.List(ctx)
}

func (s *teamService) Update(ctx context.Context, id string, input TeamInput) (*models.Team, error) {
	team, err := s.build(input)
	if err != nil {
		return nil, err
	}
	team.ID = id
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.Get(ctx, id)
}

func (s *teamService) Delete(ctx context.Context, id string) error {
	return handleRepositoryError(s.teamRepo.Delete(ctx, id))
}

func (s *teamService) build(input TeamInput) (*models.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	players := input.Players
	if players == nil {
		players = []models.Player{}
	}
	return &models.Team{Name: input.Name, Players: players, LogoURL: input.LogoURL}, nil
}
