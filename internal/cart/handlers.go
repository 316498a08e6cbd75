package cart

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

// View is the response shape for every cart endpoint.
type View struct {
	Cart
	Totals Totals `json:"totals"`
}

func (h *Handler) render(w http.ResponseWriter, status int, c Cart) {
	common.Data(w, status, View{Cart: c, Totals: c.Totals(h.Svc.Clock())})
}

func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return uuid.Nil, false
	}
	return common.PathUUID(w, chi.URLParam(r, "id"), "cart id")
}

type lineRequest struct {
	ServiceID uuid.UUID `json:"serviceId" validate:"required"`
	Variant   string    `json:"variant" validate:"max=100"`
	Quantity  int       `json:"quantity"`
}

// Create starts a cart for the calling staff member and branch.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var staffID *uuid.UUID
	if p, ok := common.PrincipalFrom(r.Context()); ok {
		id := p.StaffID
		staffID = &id
	}
	c, err := h.Svc.Create(r.Context(), branch.Ptr(r.Context()), staffID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusCreated, c)
}

// Get returns cart contents with fresh totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// Totals returns only the derived totals.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c.Totals(h.Svc.Clock()))
}

// Delete cancels a cart.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem adds a service line or increments an existing one.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload lineRequest
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	c, err := h.Svc.AddItem(r.Context(), id, payload.ServiceID, payload.Variant, payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// SetQuantity sets a line quantity; zero removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload lineRequest
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.SetQuantity(r.Context(), id, payload.ServiceID, payload.Variant, payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// RemoveItem deletes a line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload lineRequest
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.RemoveItem(r.Context(), id, payload.ServiceID, payload.Variant)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// ApplyCoupon attaches a coupon. A rejected coupon answers 422 with the reason.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Code string `json:"code" validate:"required,max=64"`
	}
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, res, err := h.Svc.ApplyCoupon(r.Context(), id, strings.TrimSpace(payload.Code))
	if errors.Is(err, ErrCouponRejected) {
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", res.Reason, map[string]any{"valid": false, "reason": res.Reason})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// RemoveCoupon detaches the coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	c, err := h.Svc.RemoveCoupon(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// SetDiscount records a manual discount.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Amount pricing.Amount `json:"amount"`
	}
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.SetManualDiscount(r.Context(), id, payload.Amount.Decimal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// SetCustomer binds a customer; a null customerId makes the sale a walk-in.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload struct {
		CustomerID *uuid.UUID `json:"customerId"`
	}
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.SetCustomer(r.Context(), id, payload.CustomerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

// SetPaymentMethod selects the tender type and, optionally, the GST split.
func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cartID(w, r)
	if !ok {
		return
	}
	var payload struct {
		PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash card upi"`
		Split         *bool  `json:"split"`
	}
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	c, err := h.Svc.SetPaymentMethod(r.Context(), id, payload.PaymentMethod)
	if err == nil && payload.Split != nil {
		c, err = h.Svc.SetSplit(r.Context(), id, *payload.Split)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, http.StatusOK, c)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrNegativeDiscount), errors.Is(err, ErrInvalidPaymentMethod):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
