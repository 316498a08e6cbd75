package common

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const principalKey ctxKey = "auth/principal"

// Principal identifies the staff member behind a request.
type Principal struct {
	StaffID  uuid.UUID
	Role     string
	BranchID *uuid.UUID
}

// WithPrincipal stores the authenticated staff member on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated staff member if present.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// UserID returns the authenticated staff id as a string.
func UserID(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok || p.StaffID == uuid.Nil {
		return "", false
	}
	return p.StaffID.String(), true
}
