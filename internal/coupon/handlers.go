package coupon

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Handler exposes coupon management and validation endpoints.
type Handler struct {
	Svc *Service
}

type couponPayload struct {
	Code        string         `json:"code" validate:"omitempty,max=64"`
	Description string         `json:"description" validate:"max=500"`
	Type        string         `json:"type" validate:"required,oneof=percentage flat"`
	Value       pricing.Amount `json:"value"`
	MinAmount   pricing.Amount `json:"minAmount"`
	MaxDiscount pricing.Amount `json:"maxDiscount"`
	UsageLimit  int            `json:"usageLimit" validate:"gt=0"`
	StartDate   time.Time      `json:"startDate" validate:"required"`
	EndDate     time.Time      `json:"endDate" validate:"required"`
	IsActive    *bool          `json:"isActive"`
}

func (p couponPayload) toCoupon() Coupon {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return Coupon{
		Code:        strings.TrimSpace(p.Code),
		Description: p.Description,
		Type:        Kind(p.Type),
		Value:       p.Value.Decimal,
		MinAmount:   p.MinAmount.Decimal,
		MaxDiscount: p.MaxDiscount.Decimal,
		UsageLimit:  p.UsageLimit,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsActive:    active,
	}
}

type validateRequest struct {
	Code   string         `json:"code" validate:"required"`
	Amount pricing.Amount `json:"amount"`
}

// List returns the coupon catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// Get returns a coupon by code.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Create registers a new coupon.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.Create(r.Context(), payload.toCoupon())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, c)
}

// Update replaces a coupon definition.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var payload couponPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.Update(r.Context(), chi.URLParam(r, "code"), payload.toCoupon())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Deactivate switches a coupon off.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Deactivate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Validate checks a code against an order amount. Invalid coupons are a
// normal 200 response with valid=false and the reason.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !common.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.Svc.Validate(r.Context(), strings.TrimSpace(req.Code), req.Amount.Decimal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, res)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, ErrDuplicateCode):
		common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrInvalidCoupon):
		common.JSONError(w, http.StatusBadRequest, "INVALID_COUPON", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
