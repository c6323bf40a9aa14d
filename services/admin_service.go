package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
	"github.com/Dosada05/hockey-madness/utils"
)

type AdminUserService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) (models.UserListResponse, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	UpdateAccess(ctx context.Context, userID string, input UpdateAccessInput) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type CreateUserInput struct {
	Email          string      `json:"email" validate:"required,email"`
	Password       string      `json:"password" validate:"required,min=6"`
	Role           models.Role `json:"role" validate:"required,oneof=admin user team"`
	AssignedTeamID *string     `json:"assigned_team_id,omitempty" validate:"omitempty,uuid"`
}

type UpdateAccessInput struct {
	Role           models.Role `json:"role" validate:"required,oneof=admin user team"`
	AssignedTeamID *string     `json:"assigned_team_id,omitempty" validate:"omitempty,uuid"`
}

type adminUserService struct {
	userRepo repositories.UserRepository
	teamRepo repositories.TeamRepository
	pub      events.Publisher
	logger   *slog.Logger
}

func NewAdminUserService(userRepo repositories.UserRepository, teamRepo repositories.TeamRepository, pub events.Publisher, logger *slog.Logger) AdminUserService {
	return &adminUserService{userRepo: userRepo, teamRepo: teamRepo, pub: pub, logger: logger}
}

func (s *adminUserService) ListUsers(ctx context.Context, filter models.UserFilter) (models.UserListResponse, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return models.UserListResponse{}, ErrInvalidRole
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return models.UserListResponse{}, err
	}

	for i := range users {
		users[i].PasswordHash = ""
	}
	return models.UserListResponse{
		Users:      users,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// CreateUser заводит аккаунт с заданной ролью (в т.ч. командный аккаунт, привязанный к команде).
func (s *adminUserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	teamID, err := s.checkAssignment(ctx, input.Role, input.AssignedTeamID)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	user := &models.User{
		Email:          input.Email,
		PasswordHash:   hashedPassword,
		Role:           input.Role,
		AssignedTeamID: teamID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.Info("user created by admin", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	user.PasswordHash = ""
	return user, nil
}

// UpdateAccess меняет роль и команду пользователя; живые сессии перечитывают профиль по USER_UPDATED.
func (s *adminUserService) UpdateAccess(ctx context.Context, userID string, input UpdateAccessInput) (*models.User, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	teamID, err := s.checkAssignment(ctx, input.Role, input.AssignedTeamID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAccess(ctx, userID, input.Role, teamID); err != nil {
		return nil, handleRepositoryError(err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	user.PasswordHash = ""

	if err := s.pub.Publish(ctx, events.TopicAuthState, events.AuthEvent{
		Type:     events.AuthUserUpdated,
		UserID:   user.ID,
		Identity: &models.Identity{ID: user.ID, Email: user.Email},
	}); err != nil {
		s.logger.Error("failed to publish user update", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	return user, nil
}

// DeleteUser удаляет пользователя и завершает все его живые сессии.
func (s *adminUserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return handleRepositoryError(err)
	}
	if err := s.pub.Publish(ctx, events.TopicAuthState, events.AuthEvent{
		Type:   events.AuthSignedOut,
		UserID: userID,
	}); err != nil {
		s.logger.Error("failed to publish sign out for deleted user", slog.String("user_id", userID), slog.Any("error", err))
	}
	return nil
}

func (s *adminUserService) checkAssignment(ctx context.Context, role models.Role, teamID *string) (*string, error) {
	if role != models.RoleTeam {
		// Only team accounts carry an assigned team.
		return nil, nil
	}
	if teamID == nil || *teamID == "" {
		return nil, nil
	}
	if _, err := s.teamRepo.GetByID(ctx, *teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return teamID, nil
}
