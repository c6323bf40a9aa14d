package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dosada05/hockey-madness/guard"
	"github.com/Dosada05/hockey-madness/i18n"
	"github.com/Dosada05/hockey-madness/middleware"
	"github.com/Dosada05/hockey-madness/services"
)

type NavigationHandler struct {
	guard *guard.Guard
	prefs services.PreferencesService
}

func NewNavigationHandler(g *guard.Guard, prefs services.PreferencesService) *NavigationHandler {
	return &NavigationHandler{guard: g, prefs: prefs}
}

// Navigate godoc
// @Summary Проверка перехода на маршрут
// @Description Возвращает решение guard: proceed или redirect (login / home).
// @Tags navigation
// @Produce json
// @Param path query string true "Полный путь, например /admin/teams?tab=1"
// @Success 200 {object} guard.Decision
// @Failure 400 {object} map[string]string "path не указан"
// @Router /api/navigate [get]
func (h *NavigationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || !strings.HasPrefix(path, "/") {
		badRequestResponse(w, r, errors.New("path must be an absolute application path"))
		return
	}
	manager, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		serverErrorResponse(w, r, errors.New("client session missing"))
		return
	}

	d := h.guard.Navigate(r.Context(), path, manager)
	response := jsonResponse{"decision": d}
	if d.Redirect != nil {
		locale := localeFor(r, h.prefs)
		switch d.Redirect.Name {
		case guard.RouteLogin:
			response["message"] = i18n.T(locale, i18n.MsgLoginRequired)
		default:
			response["message"] = i18n.T(locale, i18n.MsgAccessDenied)
		}
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Routes returns the route table so the shell can build links by name.
func (h *NavigationHandler) Routes(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"routes": h.guard.Table().Routes()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PageHandler serves the SPA shell after the navigation guard let the request through.
// With no static dir configured it describes the resolved route as JSON instead.
type PageHandler struct {
	table     *guard.Table
	staticDir string
	files     http.Handler
}

func NewPageHandler(table *guard.Table, staticDir string) *PageHandler {
	h := &PageHandler{table: table, staticDir: staticDir}
	if staticDir != "" {
		h.files = http.FileServer(http.Dir(staticDir))
	}
	return h
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.files != nil {
		// Existing assets are served as is; every other path gets index.html.
		name := filepath.Join(h.staticDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
		return
	}

	target, ok := h.table.Resolve(r.URL.RequestURI())
	if !ok {
		notFoundResponse(w, r, "page not found")
		return
	}
	response := jsonResponse{
		"route":  target.Name,
		"path":   target.Path,
		"params": target.Params,
		"meta":   target.Meta(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
