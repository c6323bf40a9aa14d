package handlers

import (
	"net/http"

	"github.com/Dosada05/hockey-madness/models"
	"github.com/Dosada05/hockey-madness/services"
)

type BoosterHandler struct {
	boosterService services.BoosterService
}

func NewBoosterHandler(bs services.BoosterService) *BoosterHandler {
	return &BoosterHandler{boosterService: bs}
}

// ListBoosters godoc
// @Summary Каталог бустеров и maddie
// @Tags boosters
// @Produce json
// @Param kind query string false "booster | maddie"
// @Success 200 {object} map[string]interface{}
// @Router /api/boosters [get]
func (h *BoosterHandler) ListBoosters(w http.ResponseWriter, r *http.Request) {
	var kind *models.BoosterKind
	if k := r.URL.Query().Get("kind"); k != "" {
		bk := models.BoosterKind(k)
		kind = &bk
	}
	boosters, err := h.boosterService.List(r.Context(), kind)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"boosters": boosters}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoosterHandler) GetBooster(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "boosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	booster, err := h.boosterService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"booster": booster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoosterHandler) CreateBooster(w http.ResponseWriter, r *http.Request) {
	var input services.BoosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	booster, err := h.boosterService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"booster": booster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoosterHandler) UpdateBooster(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "boosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.BoosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	booster, err := h.boosterService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"booster": booster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoosterHandler) DeleteBooster(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "boosterID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.boosterService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
