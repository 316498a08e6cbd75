package customer

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes customer endpoints.
type Handler struct {
	Svc *Service
}

type profilePayload struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"required,max=32"`
	Email string `json:"email" validate:"omitempty,email"`
	GSTIN string `json:"gstin" validate:"omitempty,len=15"`
}

// List handles GET /api/v1/customers?q=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	p := common.Pagination{Page: page, PerPage: perPage}
	res, err := h.Svc.Search(r.Context(), branch.Ptr(r.Context()), r.URL.Query().Get("q"), perPage, p.Offset())
	if err != nil {
		h.writeError(w, err)
		return
	}
	p.TotalItems = int(res.Total)
	common.Page(w, res.Items, p)
}

// Get handles GET /api/v1/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "customer id")
	if !ok {
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Create handles POST /api/v1/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload profilePayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.Create(r.Context(), Profile{
		BranchID: branch.Ptr(r.Context()),
		Name:     payload.Name,
		Phone:    payload.Phone,
		Email:    payload.Email,
		GSTIN:    payload.GSTIN,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/customers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "customer id")
	if !ok {
		return
	}
	var payload profilePayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.Update(r.Context(), id, Profile{Name: payload.Name, Phone: payload.Phone, Email: payload.Email, GSTIN: payload.GSTIN})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/customers/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "customer id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activities handles GET /api/v1/customers/{id}/activities.
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "customer id")
	if !ok {
		return
	}
	items, err := h.Svc.Activities(r.Context(), id, common.AtoiDefault(r.URL.Query().Get("limit"), 50))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "customer not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
