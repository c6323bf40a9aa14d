package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/hockey-madness/session"
	"github.com/Dosada05/hockey-madness/utils"
)

// Cookie names shared with the browser shell.
const (
	ClientCookie = "hm_client"
	TokenCookie  = "hm_token"
)

const clientCookieMaxAge = 365 * 24 * time.Hour

// TokenFromRequest reads the access token from the Authorization header or the token cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// ClientSession attaches the browser client's session to the request context, issuing a client
// cookie on first contact. The manager itself is created on the first SessionFromContext call, so
// requests that never read session state (public scoreboard reads) leave the registry untouched.
func ClientSession(registry *session.Registry, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if c, err := r.Cookie(ClientCookie); err == nil && utils.ValidClientID(c.Value) {
				clientID = c.Value
			} else {
				clientID = utils.NewClientID()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientCookie,
					Value:    clientID,
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}

			token := TokenFromRequest(r)
			lazy := &lazySession{registry: registry, clientID: clientID, token: token}

			ctx := context.WithValue(r.Context(), clientIDContextKey, clientID)
			ctx = context.WithValue(ctx, sessionContextKey, lazy)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type lazySession struct {
	once     sync.Once
	registry *session.Registry
	clientID string
	token    string
	manager  *session.Manager
}

func (l *lazySession) get() *session.Manager {
	l.once.Do(func() {
		if l.registry != nil {
			l.manager = l.registry.Get(l.clientID, l.token)
		}
	})
	return l.manager
}

// SetTokenCookie stores the access token for page navigations, which carry no Authorization header.
func SetTokenCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
