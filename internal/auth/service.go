// Package auth signs staff in, issues access tokens and manages staff accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/store"
)

const (
	defaultAccessTTL = 12 * time.Hour
	claimRole        = "role"
	claimBranch      = "branch"
)

// Roles lists the accepted staff roles.
var Roles = []string{string(store.StaffRoleAdmin), string(store.StaffRoleManager), string(store.StaffRoleStaff)}

var errInvalidCredentials = common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)

// Querier is the staff storage used by the service.
type Querier interface {
	GetStaffByEmail(ctx context.Context, email string) (store.Staff, error)
	GetStaff(ctx context.Context, id uuid.UUID) (store.Staff, error)
	CreateStaff(ctx context.Context, arg store.CreateStaffParams) (store.Staff, error)
	ListStaff(ctx context.Context, branchID *uuid.UUID) ([]store.Staff, error)
	UpdateStaff(ctx context.Context, arg store.UpdateStaffParams) (store.Staff, error)
	SetStaffPassword(ctx context.Context, id uuid.UUID, hash string) (int64, error)
}

// Service verifies staff credentials and signs HS256 access tokens.
type Service struct {
	queries   Querier
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        Querier
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Staff        store.Staff `json:"staff"`
	AccessToken  string      `json:"accessToken"`
	AccessExpiry time.Time   `json:"accessTokenExpiresAt"`
}

// StaffInput creates a staff account.
type StaffInput struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     string     `json:"role" validate:"required,oneof=admin manager staff"`
	BranchID *uuid.UUID `json:"branchId"`
}

// NewService constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-salon"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "salon-dashboard"
	}
	clockSkew := max(cfg.ClockSkew, 0)
	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		validator: TokenValidator{Issuer: issuer, Audience: audience, ClockSkew: clockSkew, Algorithm: jwa.HS256},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, errInvalidCredentials
	}
	staff, err := s.queries.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, errInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load staff: %w", err)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, staff.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, errInvalidCredentials
	}
	if !staff.IsActive {
		return LoginResult{}, common.NewAppError("ACCOUNT_DISABLED", "account is disabled", http.StatusForbidden, nil)
	}
	token, expiry, err := s.signAccessToken(staff)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{Staff: staff, AccessToken: token, AccessExpiry: expiry}, nil
}

// Me loads the authenticated staff member.
func (s *Service) Me(ctx context.Context, id uuid.UUID) (store.Staff, error) {
	staff, err := s.queries.GetStaff(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Staff{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, nil)
		}
		return store.Staff{}, err
	}
	return staff, nil
}

// CreateStaff hashes the password and stores a new account.
func (s *Service) CreateStaff(ctx context.Context, in StaffInput) (store.Staff, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return store.Staff{}, common.NewAppError("VALIDATION_FAILED", "name is required", http.StatusBadRequest, nil)
	}
	if !slices.Contains(Roles, in.Role) {
		return store.Staff{}, common.NewAppError("VALIDATION_FAILED", "unknown role", http.StatusBadRequest, nil)
	}
	if len(in.Password) < 8 {
		return store.Staff{}, common.NewAppError("VALIDATION_FAILED", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	hash, err := argon2id.CreateHash(in.Password, argon2id.DefaultParams)
	if err != nil {
		return store.Staff{}, fmt.Errorf("hash password: %w", err)
	}
	staff, err := s.queries.CreateStaff(ctx, store.CreateStaffParams{
		BranchID:     in.BranchID,
		Name:         name,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         store.StaffRole(in.Role),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.Staff{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return store.Staff{}, fmt.Errorf("create staff: %w", err)
	}
	return staff, nil
}

// StaffUpdate changes a staff account. A non-empty Password resets it.
type StaffUpdate struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Role     string     `json:"role" validate:"required,oneof=admin manager staff"`
	BranchID *uuid.UUID `json:"branchId"`
	IsActive *bool      `json:"isActive"`
	Password string     `json:"password" validate:"omitempty,min=8"`
}

var errStaffNotFound = common.NewAppError("NOT_FOUND", "staff not found", http.StatusNotFound, nil)

// UpdateStaff edits an account. Admins cannot demote or deactivate themselves.
func (s *Service) UpdateStaff(ctx context.Context, actor, id uuid.UUID, in StaffUpdate) (store.Staff, error) {
	cur, err := s.queries.GetStaff(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Staff{}, errStaffNotFound
		}
		return store.Staff{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return store.Staff{}, common.NewAppError("VALIDATION_FAILED", "name is required", http.StatusBadRequest, nil)
	}
	if !slices.Contains(Roles, in.Role) {
		return store.Staff{}, common.NewAppError("VALIDATION_FAILED", "unknown role", http.StatusBadRequest, nil)
	}
	active := cur.IsActive
	if in.IsActive != nil {
		active = *in.IsActive
	}
	if actor == id && (!active || store.StaffRole(in.Role) != cur.Role) {
		return store.Staff{}, common.NewAppError("SELF_LOCKOUT", "cannot change your own role or deactivate yourself", http.StatusConflict, nil)
	}
	var hash string
	if in.Password != "" {
		if len(in.Password) < 8 {
			return store.Staff{}, common.NewAppError("VALIDATION_FAILED", "password must be at least 8 characters", http.StatusBadRequest, nil)
		}
		if hash, err = argon2id.CreateHash(in.Password, argon2id.DefaultParams); err != nil {
			return store.Staff{}, fmt.Errorf("hash password: %w", err)
		}
	}
	staff, err := s.queries.UpdateStaff(ctx, store.UpdateStaffParams{
		ID:       id,
		BranchID: in.BranchID,
		Name:     name,
		Role:     store.StaffRole(in.Role),
		IsActive: active,
	})
	if err != nil {
		return store.Staff{}, fmt.Errorf("update staff: %w", err)
	}
	if hash != "" {
		if _, err := s.queries.SetStaffPassword(ctx, id, hash); err != nil {
			return store.Staff{}, fmt.Errorf("set password: %w", err)
		}
	}
	return staff, nil
}

// DeactivateStaff blocks further logins for an account and keeps its history.
func (s *Service) DeactivateStaff(ctx context.Context, actor, id uuid.UUID) (store.Staff, error) {
	cur, err := s.queries.GetStaff(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Staff{}, errStaffNotFound
		}
		return store.Staff{}, err
	}
	off := false
	return s.UpdateStaff(ctx, actor, id, StaffUpdate{Name: cur.Name, Role: string(cur.Role), BranchID: cur.BranchID, IsActive: &off})
}

// ListStaff returns accounts, optionally for one branch.
func (s *Service) ListStaff(ctx context.Context, branchID *uuid.UUID) ([]store.Staff, error) {
	items, err := s.queries.ListStaff(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Staff{}
	}
	return items, nil
}

// ParseAccessToken validates a token and returns the principal it names.
func (s *Service) ParseAccessToken(token string) (common.Principal, error) {
	unauthorized := func(err error) error {
		return common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Principal{}, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Principal{}, unauthorized(err)
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return common.Principal{}, unauthorized(err)
	}
	p, err := s.validator.Principal(parsed, algorithm, s.now())
	if err != nil {
		return common.Principal{}, unauthorized(err)
	}
	return p, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) != 1 {
		return "", errors.New("auth: token must carry exactly one signature")
	}
	headers := signatures[0].ProtectedHeaders()
	if headers == nil {
		return "", errors.New("auth: token missing protected headers")
	}
	alg := headers.Algorithm()
	switch alg {
	case "":
		return "", errors.New("auth: token missing algorithm")
	case jwa.NoSignature:
		return "", errors.New("auth: token uses none algorithm")
	}
	return alg, nil
}

func (s *Service) signAccessToken(staff store.Staff) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(staff.ID.String()).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(claimRole, string(staff.Role))
	if staff.BranchID != nil {
		builder = builder.Claim(claimBranch, staff.BranchID.String())
	}
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
