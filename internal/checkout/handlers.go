package checkout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/cart"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/lock"
)

// Handler exposes cart finalisation.
type Handler struct {
	Svc *Service
}

type finalizeRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"omitempty,oneof=cash card upi"`
}

// Finalize handles POST /carts/{id}/finalize. The body is optional.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	cartID, ok := common.PathUUID(w, chi.URLParam(r, "id"), "cart id")
	if !ok {
		return
	}
	var payload finalizeRequest
	if r.ContentLength != 0 && !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	in := Input{CartID: cartID, PaymentMethod: payload.PaymentMethod}
	if p, ok := common.PrincipalFrom(r.Context()); ok {
		id := p.StaffID
		in.StaffID = &id
	}
	res, err := h.Svc.Finalize(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, res)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var couponErr *CouponError
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "Cart is empty", nil)
	case errors.As(err, &couponErr):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", couponErr.Reason,
			map[string]any{"code": couponErr.Code, "reason": couponErr.Reason})
	case errors.Is(err, ErrContention), errors.Is(err, lock.ErrNotAcquired):
		common.JSONError(w, http.StatusConflict, "CONTENTION", err.Error(), map[string]any{"retryable": true})
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
