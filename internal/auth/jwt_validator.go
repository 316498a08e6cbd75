package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-salon/internal/common"
)

// TokenValidator checks registered claims and turns a staff token into a
// Principal.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Principal validates tok, signed with algorithm, as of now and reads the
// subject, role and branch claims.
func (v TokenValidator) Principal(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) (common.Principal, error) {
	if tok == nil {
		return common.Principal{}, errors.New("auth: token is nil")
	}
	if algorithm != v.Algorithm {
		return common.Principal{}, fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(v.ClockSkew),
		jwt.WithRequiredClaim(jwt.SubjectKey),
		jwt.WithRequiredClaim(claimRole),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		return common.Principal{}, err
	}

	id, err := uuid.Parse(tok.Subject())
	if err != nil {
		return common.Principal{}, fmt.Errorf("auth: subject: %w", err)
	}
	p := common.Principal{StaffID: id}
	if raw, ok := tok.Get(claimRole); ok {
		p.Role, _ = raw.(string)
	}
	if !slices.Contains(Roles, p.Role) {
		return common.Principal{}, fmt.Errorf("auth: unknown role %q", p.Role)
	}
	if raw, ok := tok.Get(claimBranch); ok {
		if s, _ := raw.(string); s != "" {
			branchID, err := uuid.Parse(s)
			if err != nil {
				return common.Principal{}, fmt.Errorf("auth: branch: %w", err)
			}
			p.BranchID = &branchID
		}
	}
	return p, nil
}
