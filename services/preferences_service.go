package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/hockey-madness/i18n"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/redis/go-redis/v9"
)

// Storage keys mirror the browser's localStorage keys.
const (
	LocaleKey = "hm-locale"
	ThemeKey  = "hm-theme"
)

// PreferencesStore persists per-client settings as flat string fields.
type PreferencesStore interface {
	Load(ctx context.Context, clientID string) (map[string]string, error)
	Save(ctx context.Context, clientID string, fields map[string]string) error
}

// RedisPreferencesStore keeps one hash per client: prefs:<client id>.
type RedisPreferencesStore struct {
	client *redis.Client
}

func NewRedisPreferencesStore(client *redis.Client) *RedisPreferencesStore {
	return &RedisPreferencesStore{client: client}
}

func (s *RedisPreferencesStore) Load(ctx context.Context, clientID string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, "prefs:"+clientID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return fields, nil
}

func (s *RedisPreferencesStore) Save(ctx context.Context, clientID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		values = append(values, k, v)
	}
	if err := s.client.HSet(ctx, "prefs:"+clientID, values...).Err(); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

type MemoryPreferencesStore struct {
	mu      sync.RWMutex
	clients map[string]map[string]string
}

func NewMemoryPreferencesStore() *MemoryPreferencesStore {
	return &MemoryPreferencesStore{clients: make(map[string]map[string]string)}
}

func (s *MemoryPreferencesStore) Load(_ context.Context, clientID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.clients[clientID]))
	for k, v := range s.clients[clientID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryPreferencesStore) Save(_ context.Context, clientID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.clients[clientID]
	if !ok {
		stored = make(map[string]string, len(fields))
		s.clients[clientID] = stored
	}
	for k, v := range fields {
		stored[k] = v
	}
	return nil
}

type PreferencesService interface {
	Get(ctx context.Context, clientID string) (models.Preferences, error)
	Update(ctx context.Context, clientID string, input PreferencesInput) (models.Preferences, error)
	Themes() []models.Theme
}

// PreferencesInput changes only the fields that are set.
type PreferencesInput struct {
	Locale  *string `json:"locale,omitempty"`
	ThemeID *string `json:"theme_id,omitempty"`
}

type preferencesService struct {
	store  PreferencesStore
	logger *slog.Logger
}

func NewPreferencesService(store PreferencesStore, logger *slog.Logger) PreferencesService {
	return &preferencesService{store: store, logger: logger}
}

// Get never fails on unreadable or stale values: they fall back to the defaults.
func (s *preferencesService) Get(ctx context.Context, clientID string) (models.Preferences, error) {
	prefs := models.Preferences{Locale: i18n.DefaultLocale, ThemeID: models.DefaultThemeID}

	fields, err := s.store.Load(ctx, clientID)
	if err != nil {
		s.logger.Warn("preferences unavailable, using defaults", slog.String("client_id", clientID), slog.Any("error", err))
		return prefs, nil
	}
	if l := fields[LocaleKey]; i18n.Valid(l) {
		prefs.Locale = l
	}
	if id := fields[ThemeKey]; id != "" {
		if _, ok := models.FindTheme(id); ok {
			prefs.ThemeID = id
		}
	}
	return prefs, nil
}

func (s *preferencesService) Update(ctx context.Context, clientID string, input PreferencesInput) (models.Preferences, error) {
	fields := make(map[string]string, 2)
	if input.Locale != nil {
		if !i18n.Valid(*input.Locale) {
			return models.Preferences{}, ErrUnsupportedLocale
		}
		fields[LocaleKey] = *input.Locale
	}
	if input.ThemeID != nil {
		if _, ok := models.FindTheme(*input.ThemeID); !ok {
			return models.Preferences{}, ErrUnknownTheme
		}
		fields[ThemeKey] = *input.ThemeID
	}

	if err := s.store.Save(ctx, clientID, fields); err != nil {
		return models.Preferences{}, err
	}
	return s.Get(ctx, clientID)
}

func (s *preferencesService) Themes() []models.Theme {
	return models.Themes
}
