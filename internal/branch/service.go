package branch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

var (
	ErrNotFound     = errors.New("branch not found")
	ErrInvalidInput = errors.New("invalid branch")
	ErrConflict     = errors.New("branch code or gstin already used")
	ErrInUse        = errors.New("branch still has staff, customers or sales")
)

// Querier captures the store methods used to manage branches.
type Querier interface {
	CreateBranch(ctx context.Context, arg store.UpsertBranchParams) (store.Branch, error)
	UpdateBranch(ctx context.Context, arg store.UpsertBranchParams) (store.Branch, error)
	GetBranch(ctx context.Context, id uuid.UUID) (store.Branch, error)
	ListBranches(ctx context.Context) ([]store.Branch, error)
	BranchUsage(ctx context.Context, id uuid.UUID) (store.BranchUsage, error)
	DeleteBranch(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service manages salon branches.
type Service struct {
	Q Querier
}

// Input is the editable part of a branch.
type Input struct {
	Name     string
	Code     string
	Address  string
	City     string
	State    string
	Pincode  string
	Phone    string
	GSTIN    string
	IsActive *bool
}

func (in Input) params() (store.UpsertBranchParams, error) {
	p := store.UpsertBranchParams{
		Name:     strings.TrimSpace(in.Name),
		Code:     strings.ToUpper(strings.TrimSpace(in.Code)),
		Address:  strings.TrimSpace(in.Address),
		City:     strings.TrimSpace(in.City),
		State:    strings.TrimSpace(in.State),
		Pincode:  strings.TrimSpace(in.Pincode),
		Phone:    strings.TrimSpace(in.Phone),
		IsActive: true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.Name == "" || p.Code == "" {
		return p, fmt.Errorf("name and code are required: %w", ErrInvalidInput)
	}
	if g := strings.ToUpper(strings.TrimSpace(in.GSTIN)); g != "" {
		if !pricing.ValidateGSTIN(g) {
			return p, fmt.Errorf("malformed gstin %q: %w", in.GSTIN, ErrInvalidInput)
		}
		p.GSTIN = &g
	}
	return p, nil
}

// List returns every branch ordered by name.
func (s *Service) List(ctx context.Context) ([]store.Branch, error) {
	items, err := s.Q.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Branch{}
	}
	return items, nil
}

// Get returns one branch.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (store.Branch, error) {
	b, err := s.Q.GetBranch(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Branch{}, ErrNotFound
	}
	return b, err
}

// Create opens a branch.
func (s *Service) Create(ctx context.Context, in Input) (store.Branch, error) {
	p, err := in.params()
	if err != nil {
		return store.Branch{}, err
	}
	b, err := s.Q.CreateBranch(ctx, p)
	if store.IsUniqueViolation(err) {
		return store.Branch{}, ErrConflict
	}
	return b, err
}

// Update replaces a branch's details.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (store.Branch, error) {
	p, err := in.params()
	if err != nil {
		return store.Branch{}, err
	}
	p.ID = id
	b, err := s.Q.UpdateBranch(ctx, p)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return store.Branch{}, ErrNotFound
	case store.IsUniqueViolation(err):
		return store.Branch{}, ErrConflict
	}
	return b, err
}

// Delete removes a branch nothing refers to. Branches with history should be
// deactivated through Update instead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	u, err := s.Q.BranchUsage(ctx, id)
	if err != nil {
		return err
	}
	if u.Staff > 0 || u.Customers > 0 || u.Sales > 0 {
		return fmt.Errorf("%d staff, %d customers, %d sales: %w", u.Staff, u.Customers, u.Sales, ErrInUse)
	}
	n, err := s.Q.DeleteBranch(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
