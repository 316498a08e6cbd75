package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

func TestTokenValidatorPrincipal(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	staffID := uuid.New()
	branchID := uuid.New()
	type claims struct {
		issuer, subject, role, branch string
		nbf, exp                      time.Time
	}
	valid := claims{"backend-salon", staffID.String(), "manager", branchID.String(), now, now.Add(time.Minute)}
	build := func(c claims) jwt.Token {
		b := jwt.NewBuilder().
			Issuer(c.issuer).
			Audience([]string{"salon-dashboard"}).
			IssuedAt(now).
			NotBefore(c.nbf).
			Expiration(c.exp)
		if c.subject != "" {
			b = b.Subject(c.subject)
		}
		if c.role != "" {
			b = b.Claim(claimRole, c.role)
		}
		if c.branch != "" {
			b = b.Claim(claimBranch, c.branch)
		}
		tok, err := b.Build()
		require.NoError(t, err)
		return tok
	}
	with := func(mut func(*claims)) jwt.Token {
		c := valid
		mut(&c)
		return build(c)
	}
	v := TokenValidator{Issuer: "backend-salon", Audience: "salon-dashboard", ClockSkew: time.Second, Algorithm: jwa.HS256}

	p, err := v.Principal(build(valid), jwa.HS256, now)
	require.NoError(t, err)
	require.Equal(t, staffID, p.StaffID)
	require.Equal(t, "manager", p.Role)
	require.Equal(t, branchID, *p.BranchID)

	cases := []struct {
		name string
		tok  jwt.Token
		alg  jwa.SignatureAlgorithm
	}{
		{"issuer mismatch", with(func(c *claims) { c.issuer = "elsewhere" }), jwa.HS256},
		{"expired", with(func(c *claims) { c.nbf, c.exp = now.Add(-2*time.Hour), now.Add(-time.Minute) }), jwa.HS256},
		{"not yet valid", with(func(c *claims) { c.nbf, c.exp = now.Add(5*time.Minute), now.Add(10*time.Minute) }), jwa.HS256},
		{"algorithm mismatch", build(valid), jwa.RS256},
		{"missing role", with(func(c *claims) { c.role = "" }), jwa.HS256},
		{"unknown role", with(func(c *claims) { c.role = "owner" }), jwa.HS256},
		{"subject not uuid", with(func(c *claims) { c.subject = "staff" }), jwa.HS256},
		{"bad branch", with(func(c *claims) { c.branch = "main" }), jwa.HS256},
		{"nil token", nil, jwa.HS256},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Principal(tc.tok, tc.alg, now)
			require.Error(t, err)
		})
	}
}
