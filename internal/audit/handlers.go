package audit

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/store"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	Store Store
}

// List handles GET /api/v1/audit-logs?resource=&limit=&offset=.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	q := r.URL.Query()
	limit := common.AtoiDefault(q.Get("limit"), 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := common.AtoiDefault(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	rows, err := h.Store.ListAuditLogs(r.Context(), store.ListAuditLogsParams{
		ResourceType: strings.TrimSpace(q.Get("resource")),
		Limit:        int32(limit),
		Offset:       int32(offset),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	if rows == nil {
		rows = []store.AuditLog{}
	}
	common.Data(w, http.StatusOK, rows)
}
