// Package branch scopes requests to one salon branch.
package branch

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/common"
)

type contextKey string

const branchContextKey contextKey = "branch.id"

// HeaderName carries an explicit branch selection.
const HeaderName = "X-Branch-ID"

// Resolver resolves the active branch from the request header, the staff
// token or a configured default, in that order.
type Resolver struct {
	HeaderName string
	Default    *uuid.UUID
}

// NewResolver returns a resolver reading headerName, falling back to defaultID.
func NewResolver(headerName string, defaultID *uuid.UUID) *Resolver {
	if headerName == "" {
		headerName = HeaderName
	}
	return &Resolver{HeaderName: headerName, Default: defaultID}
}

// Middleware injects the resolved branch into the request context. Staff
// bound to a branch may not act on another one unless they are admins.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id, err := r.Resolve(req)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid "+r.HeaderName+" header", nil)
			return
		}
		if p, ok := common.PrincipalFrom(req.Context()); ok && id != nil && p.BranchID != nil && p.Role != "admin" && *p.BranchID != *id {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "branch not accessible", nil)
			return
		}
		if id != nil {
			req = req.WithContext(With(req.Context(), *id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the requested branch, or nil when none applies.
func (r *Resolver) Resolve(req *http.Request) (*uuid.UUID, error) {
	if r == nil || req == nil {
		return nil, nil
	}
	if raw := strings.TrimSpace(req.Header.Get(r.HeaderName)); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}
	if p, ok := common.PrincipalFrom(req.Context()); ok && p.BranchID != nil {
		id := *p.BranchID
		return &id, nil
	}
	return r.Default, nil
}

// With stores the branch identifier inside ctx.
func With(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, branchContextKey, id)
}

// FromContext extracts the branch identifier if one was resolved.
func FromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(branchContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// Ptr is FromContext for callers storing a nullable branch column.
func Ptr(ctx context.Context) *uuid.UUID {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return &id
}

// PrefixKey namespaces a cache or channel key per branch.
func PrefixKey(id *uuid.UUID, key string) string {
	if id == nil || *id == uuid.Nil {
		return key
	}
	return "branch:" + id.String() + ":" + key
}
