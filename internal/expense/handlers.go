package expense

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/pricing"
)

const dateLayout = "2006-01-02"

// Handler exposes expense endpoints.
type Handler struct {
	Svc *Service
}

type payload struct {
	Category        string         `json:"category" validate:"required,max=80"`
	Description     string         `json:"description" validate:"required,max=500"`
	Amount          pricing.Amount `json:"amount"`
	Date            string         `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMethod   string         `json:"paymentMethod" validate:"max=32"`
	Vendor          string         `json:"vendor" validate:"max=200"`
	Status          string         `json:"status" validate:"omitempty,oneof=Pending Paid Overdue"`
	RecurringPeriod string         `json:"recurringPeriod" validate:"omitempty,oneof=Weekly Monthly Quarterly Yearly"`
}

func (p payload) input(r *http.Request) Input {
	day, _ := time.Parse(dateLayout, p.Date)
	in := Input{
		BranchID:        branch.Ptr(r.Context()),
		Category:        p.Category,
		Description:     p.Description,
		Amount:          p.Amount.Decimal,
		Date:            day,
		PaymentMethod:   p.PaymentMethod,
		Vendor:          p.Vendor,
		Status:          p.Status,
		RecurringPeriod: p.RecurringPeriod,
	}
	if pr, ok := common.PrincipalFrom(r.Context()); ok {
		id := pr.StaffID
		in.CreatedBy = &id
	}
	return in
}

// List handles GET /api/v1/expenses?from=&to=&category=&status=. Dates are YYYY-MM-DD, to exclusive.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{BranchID: branch.Ptr(r.Context()), Category: q.Get("category"), Status: q.Get("status")}
	for key, dst := range map[string]*time.Time{"from": &params.From, "to": &params.To} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", key+" must be YYYY-MM-DD", nil)
			return
		}
		*dst = t
	}
	res, err := h.Svc.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, res)
}

// Get handles GET /api/v1/expenses/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "expense id")
	if !ok {
		return
	}
	e, err := h.Svc.Get(r.Context(), branch.Ptr(r.Context()), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, e)
}

// Create handles POST /api/v1/expenses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var p payload
	if !common.DecodeAndValidate(w, r, &p) {
		return
	}
	e, err := h.Svc.Create(r.Context(), p.input(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, e)
}

// Update handles PUT /api/v1/expenses/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "expense id")
	if !ok {
		return
	}
	var p payload
	if !common.DecodeAndValidate(w, r, &p) {
		return
	}
	e, err := h.Svc.Update(r.Context(), id, p.input(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, e)
}

// Delete handles DELETE /api/v1/expenses/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "expense id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), branch.Ptr(r.Context()), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "expense not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
