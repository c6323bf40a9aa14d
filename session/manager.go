// Package session holds the per-client authentication state: who the current user is, what
// profile (role) they have, and whether initialization is still in flight.
//
// A Manager is constructed for one browser client, initialized once, and observed by the
// navigation guard through Subscribe. Only the Manager's own operations mutate its State.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/metrics"
	"github.com/Dosada05/hockey-madness/models"
)

// DefaultInitTimeout bounds Initialize; loading is forced to false once it elapses.
const DefaultInitTimeout = 15 * time.Second

var (
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrProfileFetchFailed  = errors.New("profile fetch failed")
)

// Provider is the identity provider the Manager talks to.
type Provider interface {
	// GetSession returns the session for token, or nil when the token carries no valid session.
	// An error means the provider could not be reached.
	GetSession(ctx context.Context, token string) (*models.AuthSession, error)
	SignInWithPassword(ctx context.Context, creds models.Credentials) (*models.AuthSession, error)
	SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error)
	SignOut(ctx context.Context, token string) error
	// OnAuthStateChange delivers pushed session changes in emission order until unsubscribe is called.
	OnAuthStateChange(fn func(events.AuthEvent)) (unsubscribe func(), err error)
}

// ProfileSource loads the extended profile of an identity.
type ProfileSource interface {
	FetchProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// State is a snapshot of the session.
type State struct {
	Identity *models.Identity `json:"user"`
	Profile  *models.Profile  `json:"profile"`
	Loading  bool             `json:"loading"`
}

func (s State) Authenticated() bool { return s.Identity != nil }

// Role reports the profile role; ok is false while no profile is loaded.
func (s State) Role() (role models.Role, ok bool) {
	if s.Identity == nil || s.Profile == nil {
		return "", false
	}
	return s.Profile.Role, true
}

func (s State) IsAdmin() bool { return s.hasRole(models.RoleAdmin) }
func (s State) IsTeam() bool  { return s.hasRole(models.RoleTeam) }
func (s State) IsUser() bool  { return s.hasRole(models.RoleUser) }

func (s State) hasRole(want models.Role) bool {
	role, ok := s.Role()
	return ok && role == want
}

// Result is returned by SignIn and SignUp. Rejections are reported in Error, never as a Go error.
type Result struct {
	Data  *models.AuthSession `json:"data"`
	Error string              `json:"error,omitempty"`
}

type Options struct {
	// Token is the access token the client presented, if any.
	Token       string
	InitTimeout time.Duration
	Logger      *slog.Logger
}

type Manager struct {
	provider    Provider
	profiles    ProfileSource
	logger      *slog.Logger
	initTimeout time.Duration

	initOnce sync.Once

	mu          sync.Mutex
	state       State
	token       string
	tokenID     string
	listeners   map[uint64]func(State)
	nextID      uint64
	unsubscribe func()
	expiry      *time.Timer
	closed      bool
}

func NewManager(provider Provider, profiles ProfileSource, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.InitTimeout
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	return &Manager{
		provider:    provider,
		profiles:    profiles,
		logger:      logger.With(slog.String("component", "session")),
		initTimeout: timeout,
		state:       State{Loading: true},
		token:       opts.Token,
		listeners:   make(map[uint64]func(State)),
	}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the access token the session is bound to.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Subscribe registers fn to be called with the new state after every mutation.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Initialize fetches the existing session, loads its profile and subscribes to provider pushes.
// It always finishes with Loading=false; only the first call has any effect.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() { m.initialize(ctx) })
}

func (m *Manager) initialize(ctx context.Context) {
	start := time.Now()
	outcome := "anonymous"

	failsafe := time.AfterFunc(m.initTimeout, func() {
		if m.settle() {
			m.logger.Warn("session initialization timeout, forcing completion", slog.Duration("timeout", m.initTimeout))
			metrics.SessionInitTotal.WithLabelValues("timeout").Inc()
		}
	})
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("session initialization panicked", slog.Any("panic", r))
			outcome = "provider_error"
		}
		failsafe.Stop()
		if m.settle() {
			metrics.SessionInitTotal.WithLabelValues(outcome).Inc()
		}
		m.logger.Debug("session initialization completed", slog.Duration("elapsed", time.Since(start)), slog.String("outcome", outcome))
	}()

	ctx, cancel := context.WithTimeout(ctx, m.initTimeout)
	defer cancel()

	if token := m.Token(); token != "" {
		sess, err := m.provider.GetSession(ctx, token)
		switch {
		case err != nil:
			m.logger.Warn("failed to fetch session, continuing unauthenticated",
				slog.Any("error", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)))
			outcome = "provider_error"
		case sess != nil && sess.Identity != nil:
			m.setSession(sess)
			m.LoadProfile(ctx)
			outcome = "authenticated"
		}
	}

	unsubscribe, err := m.provider.OnAuthStateChange(m.handleAuthEvent)
	if err != nil {
		m.logger.Warn("failed to subscribe to auth state changes", slog.Any("error", err))
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unsubscribe()
		return
	}
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
}

// settle flips Loading to false. It reports whether this call did the flip.
func (m *Manager) settle() bool {
	m.mu.Lock()
	if !m.state.Loading {
		m.mu.Unlock()
		return false
	}
	m.state.Loading = false
	m.notifyLocked()
	return true
}

// LoadProfile fetches the profile of the current identity. When the fetch fails a minimal profile
// with the user role is used instead, so an authenticated identity always ends up with a role.
func (m *Manager) LoadProfile(ctx context.Context) {
	m.mu.Lock()
	identity := m.state.Identity
	m.mu.Unlock()
	if identity == nil {
		m.logger.Debug("no identity, skipping profile load")
		return
	}

	profile, err := m.fetchProfile(ctx, identity.ID)
	if err != nil {
		m.logger.Warn("continuing with default profile",
			slog.String("user_id", identity.ID),
			slog.Any("error", fmt.Errorf("%w: %w", ErrProfileFetchFailed, err)))
		metrics.ProfileFallbackTotal.Inc()
		profile = &models.Profile{ID: identity.ID, Email: identity.Email, Role: models.RoleUser}
	}

	m.mu.Lock()
	// The identity may have changed (sign-out, another sign-in) while the fetch was in flight.
	if m.state.Identity == nil || m.state.Identity.ID != identity.ID {
		m.mu.Unlock()
		return
	}
	m.state.Profile = profile
	m.notifyLocked()
}

func (m *Manager) fetchProfile(ctx context.Context, userID string) (profile *models.Profile, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("profile source panicked: %v", r)
		}
	}()
	profile, err = m.profiles.FetchProfile(ctx, userID)
	if err == nil && profile == nil {
		err = errors.New("empty profile")
	}
	return profile, err
}

// SignIn exchanges credentials for a session and updates the state before returning, so the
// caller never observes the pre-sign-in state.
func (m *Manager) SignIn(ctx context.Context, creds models.Credentials) Result {
	sess, err := m.provider.SignInWithPassword(ctx, creds)
	if err != nil {
		m.logger.Info("sign in rejected", slog.String("email", creds.Email), slog.Any("error", err))
		return Result{Error: err.Error()}
	}
	if sess == nil || sess.Identity == nil {
		m.logger.Error("sign in returned no user data", slog.String("email", creds.Email))
		return Result{Data: sess}
	}

	m.setSession(sess)
	m.LoadProfile(ctx)
	return Result{Data: sess}
}

// SignUp registers a new identity. It does not authenticate the session.
func (m *Manager) SignUp(ctx context.Context, creds models.Credentials) Result {
	identity, err := m.provider.SignUp(ctx, creds)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Data: &models.AuthSession{Identity: identity}}
}

// SignOut asks the provider to invalidate the session and clears local state even if that fails.
func (m *Manager) SignOut(ctx context.Context) {
	token := m.Token()
	if token != "" {
		if err := m.provider.SignOut(ctx, token); err != nil {
			m.logger.Error("error signing out", slog.Any("error", err))
		}
	}
	m.clear()
}

func (m *Manager) setSession(sess *models.AuthSession) {
	m.mu.Lock()
	if m.state.Identity == nil || m.state.Identity.ID != sess.Identity.ID {
		m.state.Profile = nil
	}
	identity := *sess.Identity
	m.state.Identity = &identity
	if sess.AccessToken != "" {
		m.token = sess.AccessToken
		m.tokenID = sess.TokenID
		m.scheduleExpiryLocked(sess.AccessToken, sess.ExpiresAt)
	}
	m.notifyLocked()
}

// scheduleExpiryLocked clears the session once its access token lapses, the same way a pushed
// SIGNED_OUT would.
func (m *Manager) scheduleExpiryLocked(token string, expiresAt time.Time) {
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
	if expiresAt.IsZero() || m.closed {
		return
	}
	m.expiry = time.AfterFunc(time.Until(expiresAt), func() { m.expire(token) })
}

func (m *Manager) expire(token string) {
	m.mu.Lock()
	if m.closed || m.token != token {
		m.mu.Unlock()
		return
	}
	m.logger.Info("access token expired, clearing session")
	metrics.SessionExpiredTotal.Inc()
	m.clearLocked()
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.clearLocked()
}

// clearLocked must be called with m.mu held; it releases the lock.
func (m *Manager) clearLocked() {
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
	m.state.Identity = nil
	m.state.Profile = nil
	m.token = ""
	m.tokenID = ""
	m.notifyLocked()
}

// handleAuthEvent applies provider pushes in receipt order.
func (m *Manager) handleAuthEvent(e events.AuthEvent) {
	m.mu.Lock()
	identity := m.state.Identity
	tokenID := m.tokenID
	m.mu.Unlock()

	ownSession := tokenID != "" && e.TokenID == tokenID
	ownUser := identity != nil && identity.ID == e.UserID

	switch e.Type {
	case events.AuthSignedOut:
		if ownSession || (ownUser && e.TokenID == "") {
			m.logger.Debug("clearing session from auth state change")
			m.clear()
		}
	case events.AuthSignedIn, events.AuthTokenRefreshed, events.AuthUserUpdated:
		if !ownSession && !ownUser {
			return
		}
		if e.Identity != nil {
			m.setSession(&models.AuthSession{Identity: e.Identity})
		}
		ctx, cancel := context.WithTimeout(context.Background(), m.initTimeout)
		defer cancel()
		m.LoadProfile(ctx)
	}
}

// Close stops listening to provider pushes and drops all subscribers.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
	m.listeners = make(map[uint64]func(State))
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// notifyLocked must be called with m.mu held; it releases the lock before invoking listeners.
func (m *Manager) notifyLocked() {
	state := m.state
	fns := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
