// Package customer manages customer records and their activity log.
package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

// ErrNotFound is returned for unknown customers.
var ErrNotFound = errors.New("customer not found")

// ErrInvalidInput is returned when a profile is rejected.
var ErrInvalidInput = errors.New("invalid customer")

// Activity kinds written to the log.
const (
	ActivityRegistration = "registration"
	ActivityPurchase     = "purchase"
)

// Querier captures the store methods used for customers.
type Querier interface {
	CreateCustomer(ctx context.Context, arg store.CreateCustomerParams) (store.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (store.Customer, error)
	UpdateCustomerProfile(ctx context.Context, arg store.UpdateCustomerProfileParams) (store.Customer, error)
	SearchCustomers(ctx context.Context, arg store.SearchCustomersParams) ([]store.Customer, error)
	CountCustomers(ctx context.Context, branchID *uuid.UUID, query string) (int64, error)
	InsertCustomerActivity(ctx context.Context, arg store.InsertCustomerActivityParams) (store.CustomerActivity, error)
	ListCustomerActivities(ctx context.Context, customerID uuid.UUID, limit int32) ([]store.CustomerActivity, error)
	SoftDeleteCustomer(ctx context.Context, id uuid.UUID) (store.Customer, error)
}

// Notifier emits events with an inbox notice.
type Notifier interface {
	EmitNotice(ctx context.Context, topic string, aggregateID uuid.UUID, notice events.Notice, data any) (store.DomainEvent, error)
}

// Service manages customer profiles. Spend, visits and points only change
// through finalized sales.
type Service struct {
	Q      Querier
	Events Notifier
	Logger *zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Profile is the editable part of a customer.
type Profile struct {
	BranchID *uuid.UUID
	Name     string
	Phone    string
	Email    string
	GSTIN    string
}

func (p Profile) normalize() (Profile, *string, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.GSTIN = strings.ToUpper(strings.TrimSpace(p.GSTIN))
	if p.Name == "" {
		return p, nil, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if p.Phone == "" {
		return p, nil, fmt.Errorf("phone is required: %w", ErrInvalidInput)
	}
	if p.GSTIN == "" {
		return p, nil, nil
	}
	if !pricing.ValidateGSTIN(p.GSTIN) {
		return p, nil, fmt.Errorf("gstin %q is malformed: %w", p.GSTIN, ErrInvalidInput)
	}
	gstin := p.GSTIN
	return p, &gstin, nil
}

// Create registers a customer with zero aggregates and the Bronze tier.
func (s *Service) Create(ctx context.Context, in Profile) (store.Customer, error) {
	if s == nil || s.Q == nil {
		return store.Customer{}, errors.New("customer service not configured")
	}
	in, gstin, err := in.normalize()
	if err != nil {
		return store.Customer{}, err
	}
	c, err := s.Q.CreateCustomer(ctx, store.CreateCustomerParams{
		BranchID: in.BranchID,
		Name:     in.Name,
		Phone:    in.Phone,
		Email:    in.Email,
		GSTIN:    gstin,
	})
	if err != nil {
		return store.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	if _, err := s.Q.InsertCustomerActivity(ctx, store.InsertCustomerActivityParams{
		CustomerID:  c.ID,
		Kind:        ActivityRegistration,
		Description: "Customer registered",
		CreatedAt:   s.now(),
	}); err != nil {
		return store.Customer{}, fmt.Errorf("log registration: %w", err)
	}
	if s.Events != nil {
		notice := events.Notice{
			Title:         "New Customer Added",
			Message:       c.Name + " has been added to the system",
			Kind:          "success",
			Priority:      events.PriorityLow,
			BranchID:      c.BranchID,
			RelatedEntity: "customer",
		}
		if _, err := s.Events.EmitNotice(ctx, events.TopicCustomerCreated, c.ID, notice, c); err != nil && s.Logger != nil {
			s.Logger.Warn().Err(err).Str("customer_id", c.ID.String()).Msg("customer.created emit failed")
		}
	}
	return c, nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (store.Customer, error) {
	if s == nil || s.Q == nil {
		return store.Customer{}, errors.New("customer service not configured")
	}
	c, err := s.Q.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Customer{}, ErrNotFound
		}
		return store.Customer{}, err
	}
	return c, nil
}

// Update edits contact details only.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Profile) (store.Customer, error) {
	if s == nil || s.Q == nil {
		return store.Customer{}, errors.New("customer service not configured")
	}
	in, gstin, err := in.normalize()
	if err != nil {
		return store.Customer{}, err
	}
	c, err := s.Q.UpdateCustomerProfile(ctx, store.UpdateCustomerProfileParams{
		ID:    id,
		Name:  in.Name,
		Phone: in.Phone,
		Email: in.Email,
		GSTIN: gstin,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Customer{}, ErrNotFound
		}
		return store.Customer{}, err
	}
	return c, nil
}

// Delete hides a customer from lookups and search. Past sales keep pointing
// at the row, so aggregates and reports are unaffected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Q == nil {
		return errors.New("customer service not configured")
	}
	c, err := s.Q.SoftDeleteCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if s.Logger != nil {
		s.Logger.Info().Str("customer_id", c.ID.String()).Msg("customer deleted")
	}
	return nil
}

// SearchResult is one page of customers.
type SearchResult struct {
	Items []store.Customer
	Total int64
}

// Search matches name, phone or email within a branch.
func (s *Service) Search(ctx context.Context, branchID *uuid.UUID, query string, limit, offset int) (SearchResult, error) {
	if s == nil || s.Q == nil {
		return SearchResult{}, errors.New("customer service not configured")
	}
	query = strings.TrimSpace(query)
	total, err := s.Q.CountCustomers(ctx, branchID, query)
	if err != nil {
		return SearchResult{}, fmt.Errorf("count customers: %w", err)
	}
	items, err := s.Q.SearchCustomers(ctx, store.SearchCustomersParams{
		BranchID: branchID,
		Query:    query,
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return SearchResult{}, fmt.Errorf("search customers: %w", err)
	}
	if items == nil {
		items = []store.Customer{}
	}
	return SearchResult{Items: items, Total: total}, nil
}

// Activities returns the most recent log entries.
func (s *Service) Activities(ctx context.Context, id uuid.UUID, limit int) ([]store.CustomerActivity, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.Q.ListCustomerActivities(ctx, id, int32(limit))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.CustomerActivity{}
	}
	return items, nil
}
