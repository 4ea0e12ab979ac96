package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/luminis-shop/luminis-api/internal/econt"
)

type EcontHandler struct {
	Client *econt.Client
	Log    *zap.Logger
}

func (h *EcontHandler) Register(r chi.Router) {
	r.Post("/api/get-offices", h.offices)
}

func (h *EcontHandler) offices(w http.ResponseWriter, r *http.Request) {
	offices, err := h.Client.Offices(r.Context())
	if err != nil {
		h.Log.Error("econt lookup failed", zap.Error(err))
		fail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if len(offices) == 0 {
		fail(w, http.StatusNotFound, "No offices found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "offices": offices})
}
