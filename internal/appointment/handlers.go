package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes appointment endpoints.
type Handler struct {
	Svc *Service
}

type bookPayload struct {
	CustomerID  uuid.UUID  `json:"customerId" validate:"required"`
	ServiceID   uuid.UUID  `json:"serviceId" validate:"required"`
	StaffID     *uuid.UUID `json:"staffId"`
	ScheduledAt time.Time  `json:"scheduledAt" validate:"required"`
	Notes       string     `json:"notes" validate:"max=1000"`
}

// Book handles POST /api/v1/appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var payload bookPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	appt, err := h.Svc.Book(r.Context(), BookInput{
		BranchID:    branch.Ptr(r.Context()),
		CustomerID:  payload.CustomerID,
		ServiceID:   payload.ServiceID,
		StaffID:     payload.StaffID,
		ScheduledAt: payload.ScheduledAt,
		Notes:       payload.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, appt)
}

// List handles GET /api/v1/appointments?from=&to=&status=. Dates are RFC 3339.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ListParams{BranchID: branch.Ptr(r.Context()), Status: q.Get("status")}
	for key, dst := range map[string]*time.Time{"from": &params.From, "to": &params.To} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", key+" must be RFC 3339", nil)
			return
		}
		*dst = t
	}
	items, err := h.Svc.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=Confirmed Completed Cancelled NoShow"`
}

// UpdateStatus handles PATCH /api/v1/appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "appointment id")
	if !ok {
		return
	}
	var payload statusPayload
	if !common.DecodeAndValidate(w, r, &payload) {
		return
	}
	appt, err := h.Svc.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, appt)
}

// Upcoming handles GET /api/v1/appointments/upcoming.
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.Upcoming(r.Context(), branch.Ptr(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "appointment not found", nil)
	case errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.WriteError(w, err, http.StatusInternalServerError, "INTERNAL")
	}
}
