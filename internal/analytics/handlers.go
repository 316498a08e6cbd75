package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
)

// Handler exposes the report endpoints. Every endpoint takes
// ?range=today|week|month|custom with from/to dates for custom.
type Handler struct {
	Svc *Service
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (Range, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return Range{}, false
	}
	q := r.URL.Query()
	rng, err := ResolveRange(q.Get("range"), q.Get("from"), q.Get("to"), h.Svc.now())
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return Range{}, false
	}
	return rng, true
}

func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, build func(context.Context, *uuid.UUID, Range) (T, error)) {
	rng, ok := h.resolve(w, r)
	if !ok {
		return
	}
	out, err := build(r.Context(), branch.Ptr(r.Context()), rng)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, out)
}

// Overview returns the dashboard summary.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.Svc.Overview)
}

func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.Svc.Sales)
}

func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.Svc.Customers)
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.Svc.Services)
}

func (h *Handler) Coupons(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, h.Svc.Coupons)
}

// Export streams every report for the range as an XLSX workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.resolve(w, r)
	if !ok {
		return
	}
	f, err := h.Svc.Export(r.Context(), branch.Ptr(r.Context()), rng)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrInvalidRange) {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	defer f.Close()
	name := fmt.Sprintf("report-%s-%s.xlsx", rng.From.Format("20060102"), rng.To.AddDate(0, 0, -1).Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil && h.Svc.Logger != nil {
		h.Svc.Logger.Warn().Err(err).Msg("write report workbook failed")
	}
}
