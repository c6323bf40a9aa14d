package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/hockey-madness/metrics"
)

const DefaultIdleTTL = 30 * time.Minute

type RegistryOptions struct {
	InitTimeout time.Duration
	IdleTTL     time.Duration
	Logger      *slog.Logger
}

// Registry keeps one Manager per browser client and evicts the ones that went idle.
type Registry struct {
	provider    Provider
	profiles    ProfileSource
	initTimeout time.Duration
	idleTTL     time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	managers map[string]*registryEntry
}

type registryEntry struct {
	manager  *Manager
	lastSeen time.Time
}

func NewRegistry(provider Provider, profiles ProfileSource, opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idle := opts.IdleTTL
	if idle <= 0 {
		idle = DefaultIdleTTL
	}
	return &Registry{
		provider:    provider,
		profiles:    profiles,
		initTimeout: opts.InitTimeout,
		idleTTL:     idle,
		logger:      logger,
		now:         time.Now,
		managers:    make(map[string]*registryEntry),
	}
}

// Get returns the Manager of clientID, creating and initializing it in the background when the
// client is new or presents a different token than the one its session is bound to. A request
// without a token never reuses a manager bound to one: the token cookie lapsing ends the session.
func (r *Registry) Get(clientID, token string) *Manager {
	r.mu.Lock()
	entry, ok := r.managers[clientID]
	if ok && entry.manager.Token() != token {
		stale := entry.manager
		delete(r.managers, clientID)
		ok = false
		defer stale.Close()
	}
	if ok {
		entry.lastSeen = r.now()
		r.mu.Unlock()
		return entry.manager
	}

	m := NewManager(r.provider, r.profiles, Options{
		Token:       token,
		InitTimeout: r.initTimeout,
		Logger:      r.logger.With(slog.String("client_id", clientID)),
	})
	r.managers[clientID] = &registryEntry{manager: m, lastSeen: r.now()}
	metrics.SessionsActive.Set(float64(len(r.managers)))
	r.mu.Unlock()

	go m.Initialize(context.Background())
	return m
}

// Sweep closes and forgets managers not seen for longer than the idle TTL.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*Manager
	for id, entry := range r.managers {
		if entry.lastSeen.Before(cutoff) {
			stale = append(stale, entry.manager)
			delete(r.managers, id)
		}
	}
	metrics.SessionsActive.Set(float64(len(r.managers)))
	r.mu.Unlock()

	for _, m := range stale {
		m.Close()
	}
	return len(stale)
}

// Run sweeps on every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.managers)
}

func (r *Registry) Close() {
	r.mu.Lock()
	managers := r.managers
	r.managers = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range managers {
		entry.manager.Close()
	}
	metrics.SessionsActive.Set(0)
}
