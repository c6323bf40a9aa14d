package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dosada05/hockey-madness/guard"
)

type Navigator interface {
	Navigate(ctx context.Context, fullPath string, s guard.Session) guard.Decision
}

// Navigation runs the guard before serving a page. Redirect decisions answer with 303 See Other;
// proceed decisions fall through to pages. Requires ClientSession.
func Navigation(nav Navigator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(pages http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				pages.ServeHTTP(w, r)
				return
			}
			manager, ok := SessionFromContext(r.Context())
			if !ok {
				logger.Error("navigation without client session", slog.String("path", r.URL.Path))
				pages.ServeHTTP(w, r)
				return
			}

			d := nav.Navigate(r.Context(), r.URL.RequestURI(), manager)
			if !d.Proceed && d.Redirect != nil {
				http.Redirect(w, r, d.Redirect.URL(), http.StatusSeeOther)
				return
			}
			pages.ServeHTTP(w, r)
		})
	}
}
