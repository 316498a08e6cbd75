package branch

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes branch management endpoints.
type Handler struct {
	Svc *Service
}

type payload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Code     string `json:"code" validate:"required,max=16,alphanum"`
	Address  string `json:"address" validate:"max=300"`
	City     string `json:"city" validate:"max=80"`
	State    string `json:"state" validate:"max=80"`
	Pincode  string `json:"pincode" validate:"omitempty,numeric,len=6"`
	Phone    string `json:"phone" validate:"max=20"`
	GSTIN    string `json:"gstin" validate:"omitempty,len=15"`
	IsActive *bool  `json:"isActive"`
}

func (p payload) input() Input {
	return Input{
		Name: p.Name, Code: p.Code, Address: p.Address, City: p.City, State: p.State,
		Pincode: p.Pincode, Phone: p.Phone, GSTIN: p.GSTIN, IsActive: p.IsActive,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "branch id")
	if !ok {
		return
	}
	b, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, b)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p payload
	if !common.DecodeAndValidate(w, r, &p) {
		return
	}
	b, err := h.Svc.Create(r.Context(), p.input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, b)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "branch id")
	if !ok {
		return
	}
	var p payload
	if !common.DecodeAndValidate(w, r, &p) {
		return
	}
	b, err := h.Svc.Update(r.Context(), id, p.input())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "branch id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "branch not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrConflict):
		common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrInUse):
		common.JSONError(w, http.StatusConflict, "BRANCH_IN_USE", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
