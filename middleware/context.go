package middleware

import (
	"context"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/session"
)

type contextKey string

const (
	clientIDContextKey  contextKey = "client_id"
	sessionContextKey   contextKey = "session"
	profileContextKey   contextKey = "profile"
	tokenContextKey     contextKey = "token"
	requestIDContextKey contextKey = "request_id"
)

func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDContextKey).(string)
	return id, ok && id != ""
}

// SessionFromContext returns the session manager of the client attached by ClientSession,
// registering it on first use.
func SessionFromContext(ctx context.Context) (*session.Manager, bool) {
	lazy, ok := ctx.Value(sessionContextKey).(*lazySession)
	if !ok {
		return nil, false
	}
	m := lazy.get()
	return m, m != nil
}

// ProfileFromContext returns the profile attached by RequireAuth.
func ProfileFromContext(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(profileContextKey).(*models.Profile)
	return p, ok && p != nil
}

// TokenFromContext returns the access token the request carried.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenContextKey).(string)
	return t
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// WithProfile is used by handlers that authenticate inline and by tests.
func WithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, p)
}
