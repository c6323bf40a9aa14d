package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/hockey-madness/guard"
	"github.com/Dosada05/hockey-madness/i18n"
	"github.com/Dosada05/hockey-madness/middleware"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/services"
	"github.com/Dosada05/hockey-madness/session"
)

type AuthHandler struct {
	authService   services.AuthService
	registry      *session.Registry
	prefs         services.PreferencesService
	waitTimeout   time.Duration
	secureCookies bool
}

func NewAuthHandler(authService services.AuthService, registry *session.Registry, prefs services.PreferencesService, waitTimeout time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		registry:      registry,
		prefs:         prefs,
		waitTimeout:   waitTimeout,
		secureCookies: secureCookies,
	}
}

// SignIn godoc
// @Summary Вход по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Email и пароль"
// @Success 200 {object} map[string]interface{} "Сессия и состояние"
// @Failure 400 {object} map[string]string "Некорректный JSON"
// @Failure 401 {object} map[string]string "Неверные учетные данные"
// @Router /api/auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := readJSON(w, r, &creds); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	manager, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		serverErrorResponse(w, r, errors.New("client session missing"))
		return
	}
	locale := localeFor(r, h.prefs)

	result := manager.SignIn(r.Context(), creds)
	if result.Error != "" {
		errorResponse(w, r, http.StatusUnauthorized, jsonResponse{
			"reason":  result.Error,
			"message": i18n.T(locale, i18n.MsgInvalidLogin),
		})
		return
	}

	if result.Data != nil && result.Data.AccessToken != "" {
		middleware.SetTokenCookie(w, result.Data.AccessToken, result.Data.ExpiresAt, h.secureCookies)
	}
	response := jsonResponse{
		"data":    result.Data,
		"state":   manager.Snapshot(),
		"message": i18n.T(locale, i18n.MsgSignedIn),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SignUp godoc
// @Summary Регистрация нового пользователя (роль user)
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Email и пароль"
// @Success 201 {object} map[string]interface{} "Пользователь создан, вход не выполнен"
// @Failure 400 {object} map[string]string "Ошибка регистрации"
// @Router /api/auth/signup [post]
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := readJSON(w, r, &creds); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	manager, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		serverErrorResponse(w, r, errors.New("client session missing"))
		return
	}

	result := manager.SignUp(r.Context(), creds)
	if result.Error != "" {
		errorResponse(w, r, http.StatusBadRequest, result.Error)
		return
	}
	response := jsonResponse{
		"data":    result.Data,
		"message": i18n.T(localeFor(r, h.prefs), i18n.MsgSignedUp),
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SignOut всегда очищает локальную сессию, даже если провайдер вернул ошибку.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if manager, ok := middleware.SessionFromContext(r.Context()); ok {
		manager.SignOut(r.Context())
	}
	middleware.ClearTokenCookie(w, h.secureCookies)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": i18n.T(localeFor(r, h.prefs), i18n.MsgSignedOut)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Refresh выдает новый токен и перепривязывает сессию клиента к нему.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	sess, err := h.authService.RefreshToken(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	middleware.SetTokenCookie(w, sess.AccessToken, sess.ExpiresAt, h.secureCookies)
	if clientID, ok := middleware.ClientIDFromContext(r.Context()); ok {
		h.registry.Get(clientID, sess.AccessToken)
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"data": sess}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Session godoc
// @Summary Текущее состояние сессии клиента
// @Description Ждет завершения инициализации сессии (не дольше таймаута guard) и возвращает снимок.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/session [get]
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	manager, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		serverErrorResponse(w, r, errors.New("client session missing"))
		return
	}

	state, err := guard.WaitSettled(r.Context(), manager, h.waitTimeout)
	response := jsonResponse{
		"state":         state,
		"authenticated": state.Authenticated(),
		"is_admin":      state.IsAdmin(),
		"is_team":       state.IsTeam(),
		"is_user":       state.IsUser(),
		"timed_out":     err != nil,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Me returns the profile resolved by RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"profile": profile}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// localeFor uses a stored non-default locale, otherwise negotiates from Accept-Language.
func localeFor(r *http.Request, prefs services.PreferencesService) string {
	if clientID, ok := middleware.ClientIDFromContext(r.Context()); ok && prefs != nil {
		if p, err := prefs.Get(r.Context(), clientID); err == nil && p.Locale != i18n.DefaultLocale {
			return p.Locale
		}
	}
	return i18n.Negotiate(r.Header.Get("Accept-Language"))
}
