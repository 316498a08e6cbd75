package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Handler exposes the services catalog.
type Handler struct {
	Svc *Service
}

type servicePayload struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Category        string          `json:"category" validate:"max=100"`
	Description     string          `json:"description" validate:"max=2000"`
	Price           pricing.Amount  `json:"price"`
	DurationMinutes int32           `json:"durationMinutes" validate:"gte=0,lte=1440"`
	TaxRate         *pricing.Amount `json:"taxRate"`
	Variants        []string        `json:"variants" validate:"max=20,dive,max=100"`
	IsActive        *bool           `json:"isActive"`
	Consumables     []Consumable    `json:"consumables" validate:"dive"`
}

func (p servicePayload) input(r *http.Request) Input {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	var rate *decimal.Decimal
	if p.TaxRate != nil {
		v := p.TaxRate.Decimal
		rate = &v
	}
	return Input{
		BranchID:        branch.Ptr(r.Context()),
		Name:            p.Name,
		Category:        p.Category,
		Description:     p.Description,
		Price:           p.Price.Decimal,
		DurationMinutes: p.DurationMinutes,
		TaxRate:         rate,
		Variants:        p.Variants,
		IsActive:        active,
		Consumables:     p.Consumables,
	}
}

// List handles GET /api/v1/services.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Svc.List(r.Context(), ListParams{
		BranchID:        branch.Ptr(r.Context()),
		Category:        q.Get("category"),
		IncludeInactive: strings.EqualFold(q.Get("includeInactive"), "true"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// Get handles GET /api/v1/services/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "service id")
	if !ok {
		return
	}
	item, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Create handles POST /api/v1/services.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload servicePayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	item, err := h.Svc.Create(r.Context(), payload.input(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, item)
}

// Update handles PUT /api/v1/services/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "service id")
	if !ok {
		return
	}
	var payload servicePayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	item, err := h.Svc.Update(r.Context(), id, payload.input(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Deactivate handles DELETE /api/v1/services/{id}.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "service id")
	if !ok {
		return
	}
	row, err := h.Svc.Deactivate(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, row)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "service not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
