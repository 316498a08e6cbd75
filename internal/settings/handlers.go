package settings

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes settings endpoints.
type Handler struct {
	Svc *Service
}

// Get handles GET /api/v1/settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.Get(r.Context())
	if err != nil {
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusOK, st)
}

// Update handles PUT /api/v1/settings (admin only).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !common.DecodeAndValidate(w, r, &in) {
		return
	}
	st, err := h.Svc.Update(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
		return
	}
	common.Data(w, http.StatusOK, st)
}
