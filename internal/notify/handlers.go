package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/common"
)

// InboxHandler exposes the notification inbox.
type InboxHandler struct {
	Inbox *Inbox
}

// List handles GET /api/v1/notifications?unread=true.
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	p := common.Pagination{Page: page, PerPage: perPage}
	items, err := h.Inbox.List(r.Context(), branch.Ptr(r.Context()), r.URL.Query().Get("unread") == "true", perPage, p.Offset())
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "notification id")
	if !ok {
		return
	}
	if err := h.Inbox.MarkRead(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/notifications/{id}.
func (h *InboxHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathUUID(w, chi.URLParam(r, "id"), "notification id")
	if !ok {
		return
	}
	if err := h.Inbox.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
