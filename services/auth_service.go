package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/repositories"
	"github.com/Dosada05/hockey-madness/session"
	"github.com/Dosada05/hockey-madness/utils"
	"github.com/golang-jwt/jwt/v4"
)

const DefaultTokenTTL = 24 * time.Hour

// AuthService is the identity provider: it issues and verifies access tokens, resolves profiles and
// pushes auth state changes to every live session through the event bus.
type AuthService interface {
	session.Provider
	session.ProfileSource
	// Authenticate verifies token and returns the current profile of its owner.
	Authenticate(ctx context.Context, token string) (*models.Profile, error)
	RefreshToken(ctx context.Context, token string) (*models.AuthSession, error)
}

type AuthConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   TokenStore
	bus      events.Bus
	secret   []byte
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, tokens TokenStore, bus events.Bus, cfg AuthConfig, logger *slog.Logger) AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		bus:      bus,
		secret:   cfg.Secret,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "auth")),
		now:      time.Now,
	}
}

func (s *authService) SignInWithPassword(ctx context.Context, creds models.Credentials) (*models.AuthSession, error) {
	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if !utils.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, ErrAuthInvalidCredentials
	}

	identity := &models.Identity{ID: user.ID, Email: user.Email}
	sess, err := s.issue(identity)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.AuthEvent{Type: events.AuthSignedIn, UserID: user.ID, TokenID: sess.TokenID, Identity: identity})
	return sess, nil
}

func (s *authService) SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	if err := validateStruct(creds); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Email:        creds.Email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrAuthEmailTaken
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	s.logger.Info("user signed up", slog.String("user_id", user.ID))
	return &models.Identity{ID: user.ID, Email: user.Email}, nil
}

// GetSession returns nil without error for tokens that are malformed, expired, revoked or whose
// owner no longer exists. Errors are reserved for an unreachable backing store.
func (s *authService) GetSession(ctx context.Context, token string) (*models.AuthSession, error) {
	claims, err := s.parse(token)
	if err != nil {
		s.logger.Debug("ignoring invalid token", slog.Any("error", err))
		return nil, nil
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &models.AuthSession{
		AccessToken: token,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
		Identity:    &models.Identity{ID: user.ID, Email: user.Email},
	}, nil
}

func (s *authService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	if err := s.tokens.Revoke(ctx, claims.ID, claims.ExpiresAt.Time.Sub(s.now())); err != nil {
		return err
	}
	s.publish(ctx, events.AuthEvent{Type: events.AuthSignedOut, UserID: claims.Subject, TokenID: claims.ID})
	return nil
}

func (s *authService) RefreshToken(ctx context.Context, token string) (*models.AuthSession, error) {
	current, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAuthInvalidToken
	}

	next, err := s.issue(current.Identity)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Revoke(ctx, current.TokenID, current.ExpiresAt.Sub(s.now())); err != nil {
		return nil, err
	}

	s.publish(ctx, events.AuthEvent{
		Type:     events.AuthTokenRefreshed,
		UserID:   current.Identity.ID,
		TokenID:  current.TokenID,
		Identity: current.Identity,
	})
	return next, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.Profile, error) {
	sess, err := s.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrAuthInvalidToken
	}
	return s.FetchProfile(ctx, sess.Identity.ID)
}

func (s *authService) FetchProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.userRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return profile, nil
}

// OnAuthStateChange delivers auth events from the bus to fn, one at a time, in arrival order.
func (s *authService) OnAuthStateChange(fn func(events.AuthEvent)) (func(), error) {
	ch, cancel, err := s.bus.Subscribe(events.TopicAuthState)
	if err != nil {
		return nil, fmt.Errorf("subscribing to auth state: %w", err)
	}

	go func() {
		for data := range ch {
			var e events.AuthEvent
			if err := json.Unmarshal(data, &e); err != nil {
				s.logger.Warn("dropping malformed auth event", slog.Any("error", err))
				continue
			}
			fn(e)
		}
	}()
	return cancel, nil
}

func (s *authService) issue(identity *models.Identity) (*models.AuthSession, error) {
	now := s.now()
	claims := accessClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.NewTokenID(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &models.AuthSession{
		AccessToken: signed,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
		Identity:    identity,
	}, nil
}

func (s *authService) parse(token string) (*accessClaims, error) {
	if token == "" {
		return nil, ErrAuthInvalidToken
	}
	claims := &accessClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalidToken, err)
	}
	if claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrAuthInvalidToken
	}
	return claims, nil
}

func (s *authService) publish(ctx context.Context, e events.AuthEvent) {
	if err := s.bus.Publish(ctx, events.TopicAuthState, e); err != nil {
		s.logger.Error("failed to publish auth event", slog.String("type", string(e.Type)), slog.Any("error", err))
	}
}
