package notify

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/common"
)

// AdminHandler exposes webhook endpoint management.
type AdminHandler struct {
	Endpoints *Endpoints
}

// CreateEndpoint handles POST /api/v1/admin/webhooks.
func (h *AdminHandler) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var in EndpointInput
	if !common.DecodeAndValidate(w, r, &in) {
		return
	}
	ep, err := h.Endpoints.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, ep)
}

// UpdateEndpoint handles PUT /api/v1/admin/webhooks/{id}.
func (h *AdminHandler) UpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "endpoint id")
	if !ok {
		return
	}
	var in EndpointInput
	if !common.DecodeAndValidate(w, r, &in) {
		return
	}
	ep, err := h.Endpoints.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, ep)
}

// GetEndpoint handles GET /api/v1/admin/webhooks/{id}.
func (h *AdminHandler) GetEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "endpoint id")
	if !ok {
		return
	}
	ep, err := h.Endpoints.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, ep)
}

// ListEndpoints handles GET /api/v1/admin/webhooks.
func (h *AdminHandler) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	items, err := h.Endpoints.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// DeleteEndpoint handles DELETE /api/v1/admin/webhooks/{id}.
func (h *AdminHandler) DeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "endpoint id")
	if !ok {
		return
	}
	if err := h.Endpoints.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "not found", nil)
	case errors.Is(err, ErrInvalidEndpoint):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
