package inventory

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Handler exposes inventory endpoints.
type Handler struct {
	Svc *Service
}

type itemPayload struct {
	Name         string         `json:"name" validate:"required,max=200"`
	Category     string         `json:"category" validate:"max=100"`
	Unit         string         `json:"unit" validate:"max=32"`
	Supplier     string         `json:"supplier" validate:"max=200"`
	CurrentStock int32          `json:"currentStock" validate:"gte=0"`
	MinStock     int32          `json:"minStock" validate:"gte=0"`
	MaxStock     int32          `json:"maxStock" validate:"gte=0"`
	CostPrice    pricing.Amount `json:"costPrice"`
	SellingPrice pricing.Amount `json:"sellingPrice"`
}

func (p itemPayload) input(r *http.Request) Input {
	return Input{
		BranchID:     branch.Ptr(r.Context()),
		Name:         p.Name,
		Category:     p.Category,
		Unit:         p.Unit,
		Supplier:     p.Supplier,
		CurrentStock: p.CurrentStock,
		MinStock:     p.MinStock,
		MaxStock:     p.MaxStock,
		CostPrice:    p.CostPrice.Decimal,
		SellingPrice: p.SellingPrice.Decimal,
	}
}

// List handles GET /api/v1/inventory?lowStock=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context(), branch.Ptr(r.Context()), r.URL.Query().Get("lowStock") == "true")
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// Get handles GET /api/v1/inventory/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "item id")
	if !ok {
		return
	}
	it, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, it)
}

// Create handles POST /api/v1/inventory.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	it, err := h.Svc.Create(r.Context(), payload.input(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, it)
}

// Update handles PUT /api/v1/inventory/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "item id")
	if !ok {
		return
	}
	var payload itemPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	it, err := h.Svc.Update(r.Context(), id, payload.input(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, it)
}

type adjustPayload struct {
	Delta int32 `json:"delta" validate:"required"`
}

// Adjust handles POST /api/v1/inventory/{id}/adjust.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "item id")
	if !ok {
		return
	}
	var payload adjustPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	it, err := h.Svc.Adjust(r.Context(), id, payload.Delta)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, it)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "inventory item not found", nil)
	case errors.Is(err, ErrInsufficientStock):
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
