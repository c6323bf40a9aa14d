package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/guard"
	"github.com/Dosada05/hockey-madness/middleware"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/services"
	"github.com/Dosada05/hockey-madness/session"
	"github.com/go-chi/chi/v5"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const matchID = "7d9f1f7e-3c1a-4a52-9a0e-2b7f8f1d0c11"

// anonProvider never knows any token, so every client is anonymous.
type anonProvider struct{}

func (anonProvider) GetSession(context.Context, string) (*models.AuthSession, error) {
	return nil, nil
}

func (anonProvider) SignInWithPassword(context.Context, models.Credentials) (*models.AuthSession, error) {
	return nil, services.ErrAuthInvalidCredentials
}

func (anonProvider) SignUp(context.Context, models.Credentials) (*models.Identity, error) {
	return nil, errors.New("not used")
}

func (anonProvider) SignOut(context.Context, string) error { return nil }

func (anonProvider) OnAuthStateChange(func(events.AuthEvent)) (func(), error) {
	return func() {}, nil
}

func (anonProvider) FetchProfile(context.Context, string) (*models.Profile, error) {
	return nil, errors.New("not used")
}

func newRegistry(t *testing.T) *session.Registry {
	t.Helper()
	r := session.NewRegistry(anonProvider{}, anonProvider{}, session.RegistryOptions{InitTimeout: time.Second, Logger: testLogger})
	t.Cleanup(r.Close)
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return body
}

// stubMatchService overrides only what the tests call.
type stubMatchService struct {
	services.MatchService
	matches map[string]*models.Match
	live    []models.Match
}

func (s *stubMatchService) Get(_ context.Context, id string) (*models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, services.ErrMatchNotFound
	}
	return m, nil
}

func (s *stubMatchService) Live(context.Context) ([]models.Match, error) {
	return s.live, nil
}

func (s *stubMatchService) Goal(_ context.Context, id string, input services.GoalInput) (*models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, services.ErrMatchNotFound
	}
	if m.Status != models.MatchStatusActive {
		return nil, services.ErrMatchNotRunning
	}
	if input.Team == models.SideA {
		m.ScoreA++
	} else {
		m.ScoreB++
	}
	return m, nil
}

func matchRouter(h *MatchHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/matches/live", h.LiveMatches)
	r.Get("/api/matches/{matchID}", h.GetMatch)
	r.Post("/api/matches/{matchID}/goals", h.Goal)
	r.Post("/api/matches/{matchID}/{action}", func(w http.ResponseWriter, r *http.Request) {
		h.ChangeStatus(chi.URLParam(r, "action"))(w, r)
	})
	return r
}

func TestMatchHandler(t *testing.T) {
	svc := &stubMatchService{matches: map[string]*models.Match{
		matchID: {ID: matchID, TeamA: "Lokeren", TeamB: "Daring", Status: models.MatchStatusActive},
	}}
	router := matchRouter(NewMatchHandler(svc))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"get existing", http.MethodGet, "/api/matches/" + matchID, "", http.StatusOK},
		{"get malformed id", http.MethodGet, "/api/matches/42", "", http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/api/matches/00000000-0000-0000-0000-000000000000", "", http.StatusNotFound},
		{"goal", http.MethodPost, "/api/matches/" + matchID + "/goals", `{"team":"a"}`, http.StatusOK},
		{"goal with unknown field", http.MethodPost, "/api/matches/" + matchID + "/goals", `{"side":"a"}`, http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/api/matches/" + matchID + "/rewind", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if got := svc.matches[matchID].ScoreA; got != 1 {
		t.Errorf("ScoreA = %d, want 1", got)
	}
}

func TestMatchHandlerGoalOnPausedMatch(t *testing.T) {
	svc := &stubMatchService{matches: map[string]*models.Match{
		matchID: {ID: matchID, Status: models.MatchStatusPaused},
	}}
	req := httptest.NewRequest(http.MethodPost, "/api/matches/"+matchID+"/goals", strings.NewReader(`{"team":"b"}`))
	rec := httptest.NewRecorder()
	matchRouter(NewMatchHandler(svc)).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestLiveMatchesRedirectsToSingleMatch(t *testing.T) {
	svc := &stubMatchService{live: []models.Match{{ID: matchID, Status: models.MatchStatusActive}}}
	router := matchRouter(NewMatchHandler(svc))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/live", nil))
	body := decode(t, rec)
	if body["redirect_to"] != "/scoreboard/"+matchID {
		t.Errorf("redirect_to = %v", body["redirect_to"])
	}

	svc.live = append(svc.live, models.Match{ID: "other", Status: models.MatchStatusPaused})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/live", nil))
	if _, ok := decode(t, rec)["redirect_to"]; ok {
		t.Error("redirect_to set with two live matches")
	}
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrTeamNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrDivisionNotFound), http.StatusNotFound},
		{services.ErrTeamNameConflict, http.StatusConflict},
		{services.ErrMatchInvalidTransition, http.StatusConflict},
		{fmt.Errorf("%w: name is required", services.ErrValidationFailed), http.StatusUnprocessableEntity},
		{services.ErrUnknownTheme, http.StatusBadRequest},
		{services.ErrAuthInvalidToken, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestNavigationHandler(t *testing.T) {
	g := guard.New(guard.DefaultTable(), guard.Options{WaitTimeout: time.Second, Logger: testLogger})
	h := NewNavigationHandler(g, nil)
	router := middleware.ClientSession(newRegistry(t), false)(http.HandlerFunc(h.Navigate))

	t.Run("missing path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/navigate", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("anonymous on admin route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/navigate?path=%2Fadmin%2Fteams", nil)
		req.Header.Set("Accept-Language", "nl-BE,nl;q=0.9")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		body := decode(t, rec)
		decision := body["decision"].(map[string]any)
		if decision["proceed"] != false {
			t.Errorf("proceed = %v", decision["proceed"])
		}
		redirect := decision["redirect"].(map[string]any)
		if redirect["name"] != guard.RouteLogin {
			t.Errorf("redirect name = %v", redirect["name"])
		}
		if body["message"] != "Log in om verder te gaan" {
			t.Errorf("message = %v", body["message"])
		}
	})

	t.Run("public route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/navigate?path=/scoreboard", nil))
		body := decode(t, rec)
		if body["decision"].(map[string]any)["proceed"] != true {
			t.Errorf("decision = %v", body["decision"])
		}
		if _, ok := body["message"]; ok {
			t.Error("message set on proceed")
		}
	})
}

func TestPreferencesHandler(t *testing.T) {
	prefs := services.NewPreferencesService(services.NewMemoryPreferencesStore(), testLogger)
	h := NewPreferencesHandler(prefs)
	r := chi.NewRouter()
	r.Use(middleware.ClientSession(newRegistry(t), false))
	r.Get("/api/preferences", h.GetPreferences)
	r.Put("/api/preferences", h.UpdatePreferences)

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	req.Header.Set("Accept-Language", "fr-BE")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := decode(t, rec)
	if got := body["preferences"].(map[string]any)["locale"]; got != "en" {
		t.Errorf("default locale = %v", got)
	}
	if body["suggested_locale"] != "fr" {
		t.Errorf("suggested_locale = %v", body["suggested_locale"])
	}

	var client *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.ClientCookie {
			client = c
		}
	}
	if client == nil {
		t.Fatal("client cookie not issued")
	}

	put := func(payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(payload))
		req.AddCookie(client)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec = put(`{"locale":"nl"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	body = decode(t, rec)
	if body["message"] != "Voorkeuren opgeslagen" {
		t.Errorf("message = %v", body["message"])
	}

	if rec := put(`{"locale":"de"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported locale status = %d", rec.Code)
	}
	if rec := put(`{"theme_id":"nope"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown theme status = %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"db": ok, "redis": nil}, time.Second).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d", rec.Code)
	}
	if checks := decode(t, rec)["checks"].(map[string]any); len(checks) != 1 {
		t.Errorf("nil check was probed: %v", checks)
	}

	rec = httptest.NewRecorder()
	NewHealthHandler(map[string]Pinger{"db": ok, "storage": down}, time.Second).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "degraded" || body["checks"].(map[string]any)["storage"] != "connection refused" {
		t.Errorf("body = %v", body)
	}
}

func TestPageHandlerDescribesRoute(t *testing.T) {
	h := NewPageHandler(guard.DefaultTable(), "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scoreboard/"+matchID, nil))
	body := decode(t, rec)
	if body["route"] != "scoreboard-match" {
		t.Errorf("route = %v", body["route"])
	}
	if body["params"].(map[string]any)["id"] != matchID {
		t.Errorf("params = %v", body["params"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown page status = %d", rec.Code)
	}
}
