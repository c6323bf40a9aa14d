package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ListMatches godoc
// @Summary Список матчей
// @Tags matches
// @Produce json
// @Param status query string false "pending | active | paused | finished"
// @Param division_id query string false "Division ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.MatchFilter
	if status := q.Get("status"); status != "" {
		st := models.MatchStatus(status)
		filter.Status = &st
	}
	if division := q.Get("division_id"); division != "" {
		filter.DivisionID = &division
	}

	matches, err := h.matchService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LiveMatches godoc
// @Summary Матчи на табло (active или paused)
// @Description Если матч один, клиент открывает его табло сразу; если несколько, показывает выбор.
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/matches/live [get]
func (h *MatchHandler) LiveMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.Live(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{"matches": matches}
	if len(matches) == 1 {
		response["redirect_to"] = "/scoreboard/" + matches[0].ID
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateMatch godoc
// @Summary Создать матч
// @Tags matches
// @Accept json
// @Produce json
// @Param input body services.CreateMatchInput true "Команды и время"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /api/matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateMatch применяет патч по полям, при конкурентных правках побеждает последняя.
func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var patch models.MatchPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.Update(r.Context(), id, patch) })
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.matchService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeStatus handles POST /api/matches/{matchID}/{action} for start, pause, resume and finish.
func (h *MatchHandler) ChangeStatus(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := getIDFromURL(r, "matchID")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		var do func() (*models.Match, error)
		switch action {
		case "start":
			do = func() (*models.Match, error) { return h.matchService.Start(r.Context(), id) }
		case "pause":
			do = func() (*models.Match, error) { return h.matchService.Pause(r.Context(), id) }
		case "resume":
			do = func() (*models.Match, error) { return h.matchService.Resume(r.Context(), id) }
		case "finish":
			do = func() (*models.Match, error) { return h.matchService.Finish(r.Context(), id) }
		default:
			notFoundResponse(w, r, "unknown match action")
			return
		}
		h.respond(w, r, do)
	}
}

// Goal godoc
// @Summary Засчитать гол
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param input body services.GoalInput true "Команда (a|b) и признак гола с углового"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Матч не идет"
// @Security BearerAuth
// @Router /api/matches/{matchID}/goals [post]
func (h *MatchHandler) Goal(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.GoalInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.Goal(r.Context(), id, input) })
}

func (h *MatchHandler) PenaltyCorner(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Team models.Side `json:"team"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.PenaltyCorner(r.Context(), id, input.Team) })
}

func (h *MatchHandler) IssueCard(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.CardInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.IssueCard(r.Context(), id, input) })
}

func (h *MatchHandler) ActivateBooster(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.BoosterActivationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.ActivateBooster(r.Context(), id, input) })
}

func (h *MatchHandler) ActivateMaddie(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		BoosterID string `json:"booster_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.BoosterID == "" {
		badRequestResponse(w, r, errors.New("booster_id is required"))
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.ActivateMaddie(r.Context(), id, input.BoosterID) })
}

func (h *MatchHandler) SetTimeLeft(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		TimeLeft *int `json:"time_left"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TimeLeft == nil {
		badRequestResponse(w, r, errors.New("time_left is required"))
		return
	}
	h.respond(w, r, func() (*models.Match, error) { return h.matchService.SetTimeLeft(r.Context(), id, *input.TimeLeft) })
}

func (h *MatchHandler) respond(w http.ResponseWriter, r *http.Request, do func() (*models.Match, error)) {
	match, err := do()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
