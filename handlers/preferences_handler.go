package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/hockey-madness/i18n"
	"github.com/Dosada05/hockey-madness/middleware"
	"github.com/Dosada05/hockey-madness/services"
)

type PreferencesHandler struct {
	prefs services.PreferencesService
}

func NewPreferencesHandler(prefs services.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

// GetPreferences godoc
// @Summary Язык и тема текущего клиента
// @Description suggested_locale выводится из Accept-Language и ничего не сохраняет.
// @Tags preferences
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/preferences [get]
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		serverErrorResponse(w, r, errors.New("client id missing"))
		return
	}

	prefs, err := h.prefs.Get(r.Context(), clientID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"preferences":      prefs,
		"suggested_locale": i18n.Negotiate(r.Header.Get("Accept-Language")),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdatePreferences godoc
// @Summary Сохранить язык и/или тему
// @Tags preferences
// @Accept json
// @Produce json
// @Param input body services.PreferencesInput true "locale: en | nl | fr; theme_id из /api/themes"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неизвестный язык или тема"
// @Router /api/preferences [put]
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		serverErrorResponse(w, r, errors.New("client id missing"))
		return
	}

	var input services.PreferencesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prefs, err := h.prefs.Update(r.Context(), clientID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"preferences": prefs,
		"message":     i18n.T(prefs.Locale, i18n.MsgPreferencesStored),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PreferencesHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"themes": h.prefs.Themes()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
