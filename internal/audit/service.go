// Package audit records who changed what through the admin endpoints.
package audit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/store"
)

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg store.InsertAuditLogParams) error
	ListAuditLogs(ctx context.Context, arg store.ListAuditLogsParams) ([]store.AuditLog, error)
}

// Service persists audit entries.
type Service struct {
	Store   Store
	Enabled bool
}

// Entry is one audited request.
type Entry struct {
	Action       string
	ResourceType string
	ResourceID   string
	Status       int
}

// Record writes e for req. The actor comes from the authenticated principal.
func (s *Service) Record(ctx context.Context, req *http.Request, e Entry) error {
	if s == nil || !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}
	route := obs.RoutePattern(req, strings.TrimSpace(req.URL.Path))
	arg := store.InsertAuditLogParams{
		Action:       buildAction(e.Action, req.Method, route),
		ResourceType: buildResource(e.ResourceType, route),
		ResourceID:   strings.TrimSpace(e.ResourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		StatusCode:   int32(e.Status),
		IP:           common.ClientIP(req),
		RequestID:    middleware.GetReqID(req.Context()),
	}
	if arg.StatusCode == 0 {
		arg.StatusCode = http.StatusOK
	}
	if arg.RequestID == "" {
		arg.RequestID = strings.TrimSpace(req.Header.Get("X-Request-ID"))
	}
	if p, ok := common.PrincipalFrom(req.Context()); ok {
		id := p.StaffID
		arg.StaffID = &id
		arg.Role = p.Role
		arg.BranchID = p.BranchID
	}
	return s.Store.InsertAuditLog(ctx, arg)
}

func buildAction(action, method, route string) string {
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		return trimmed
	}
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

// buildResource derives "coupons" from /api/v1/coupons/{id} when no type is given.
func buildResource(resourceType, route string) string {
	if trimmed := strings.TrimSpace(resourceType); trimmed != "" {
		return trimmed
	}
	segments := strings.Split(strings.Trim(route, "/ "), "/")
	if len(segments) >= 3 && segments[0] == "api" && segments[1] == "v1" {
		segments = segments[2:]
	}
	var kept []string
	for _, seg := range segments {
		if seg != "" && !strings.HasPrefix(seg, "{") {
			kept = append(kept, seg)
		}
	}
	if len(kept) == 0 {
		return "unknown"
	}
	return strings.Join(kept, ".")
}
