// Package expense records business expenses per branch.
package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

var (
	// ErrNotFound is returned for unknown expenses or ones outside the caller's branch.
	ErrNotFound = errors.New("expense not found")
	// ErrInvalidInput is returned when an expense is rejected.
	ErrInvalidInput = errors.New("invalid expense")
)

// PaymentMethods accepted for an expense.
var PaymentMethods = []string{"cash", "card", "upi", "bank_transfer", "cheque"}

// RecurringPeriods accepted for a recurring expense.
var RecurringPeriods = []string{"Weekly", "Monthly", "Quarterly", "Yearly"}

// Querier captures the store methods used for expenses.
type Querier interface {
	CreateExpense(ctx context.Context, arg store.UpsertExpenseParams) (store.Expense, error)
	UpdateExpense(ctx context.Context, arg store.UpsertExpenseParams) (store.Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (store.Expense, error)
	ListExpenses(ctx context.Context, arg store.ListExpensesParams) ([]store.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) (int64, error)
}

// ReportCache drops cached reports that include expense totals.
type ReportCache interface {
	Invalidate(ctx context.Context) error
}

// Service manages expenses.
type Service struct {
	Q       Querier
	Reports ReportCache
	Logger  *zerolog.Logger
	Now     func() time.Time
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Reports == nil {
		return
	}
	if err := s.Reports.Invalidate(ctx); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Msg("report cache invalidation failed")
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Input describes an expense to record or replace.
type Input struct {
	BranchID        *uuid.UUID
	Category        string
	Description     string
	Amount          decimal.Decimal
	Date            time.Time
	PaymentMethod   string
	Vendor          string
	Status          string
	RecurringPeriod string
	CreatedBy       *uuid.UUID
}

// normalizeMethod maps labels such as "Bank Transfer" onto stored values.
func normalizeMethod(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.ReplaceAll(v, " ", "_")
}

func (in Input) params() (store.UpsertExpenseParams, error) {
	p := store.UpsertExpenseParams{
		BranchID:      in.BranchID,
		Category:      strings.TrimSpace(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Amount:        pricing.Round2(in.Amount),
		PaymentMethod: normalizeMethod(in.PaymentMethod),
		Vendor:        strings.TrimSpace(in.Vendor),
		Status:        store.ExpenseStatus(strings.TrimSpace(in.Status)),
		CreatedBy:     in.CreatedBy,
	}
	if p.Category == "" {
		return p, fmt.Errorf("category is required: %w", ErrInvalidInput)
	}
	if p.Description == "" {
		return p, fmt.Errorf("description is required: %w", ErrInvalidInput)
	}
	if !p.Amount.IsPositive() {
		return p, fmt.Errorf("amount must be greater than 0: %w", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return p, fmt.Errorf("date is required: %w", ErrInvalidInput)
	}
	y, m, d := in.Date.Date()
	p.SpentOn = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	if p.PaymentMethod == "" {
		p.PaymentMethod = "cash"
	}
	if !contains(PaymentMethods, p.PaymentMethod) {
		return p, fmt.Errorf("unknown payment method %q: %w", in.PaymentMethod, ErrInvalidInput)
	}
	switch p.Status {
	case "":
		p.Status = store.ExpensePending
	case store.ExpensePending, store.ExpensePaid, store.ExpenseOverdue:
	default:
		return p, fmt.Errorf("unknown status %q: %w", in.Status, ErrInvalidInput)
	}
	if period := strings.TrimSpace(in.RecurringPeriod); period != "" {
		if !contains(RecurringPeriods, period) {
			return p, fmt.Errorf("unknown recurring period %q: %w", period, ErrInvalidInput)
		}
		p.RecurringPeriod = &period
	}
	return p, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Create records an expense in in.BranchID.
func (s *Service) Create(ctx context.Context, in Input) (store.Expense, error) {
	if s == nil || s.Q == nil {
		return store.Expense{}, errors.New("expense service not configured")
	}
	p, err := in.params()
	if err != nil {
		return store.Expense{}, err
	}
	e, err := s.Q.CreateExpense(ctx, p)
	if err != nil {
		return store.Expense{}, err
	}
	s.invalidate(ctx)
	return e, nil
}

// Get returns one expense. An expense belonging to another branch is reported
// as missing when branchID is set.
func (s *Service) Get(ctx context.Context, branchID *uuid.UUID, id uuid.UUID) (store.Expense, error) {
	if s == nil || s.Q == nil {
		return store.Expense{}, errors.New("expense service not configured")
	}
	e, err := s.Q.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Expense{}, ErrNotFound
		}
		return store.Expense{}, err
	}
	if branchID != nil && (e.BranchID == nil || *e.BranchID != *branchID) {
		return store.Expense{}, ErrNotFound
	}
	return e, nil
}

// Update replaces the editable fields. The branch and author never change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (store.Expense, error) {
	cur, err := s.Get(ctx, in.BranchID, id)
	if err != nil {
		return store.Expense{}, err
	}
	p, err := in.params()
	if err != nil {
		return store.Expense{}, err
	}
	p.ID = cur.ID
	e, err := s.Q.UpdateExpense(ctx, p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Expense{}, ErrNotFound
		}
		return store.Expense{}, err
	}
	s.invalidate(ctx)
	return e, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, branchID *uuid.UUID, id uuid.UUID) error {
	if _, err := s.Get(ctx, branchID, id); err != nil {
		return err
	}
	n, err := s.Q.DeleteExpense(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

// ListParams filters expenses. A zero range means the current calendar month.
type ListParams struct {
	BranchID *uuid.UUID
	Category string
	Status   string
	From     time.Time
	To       time.Time
}

// ListResult is a filtered list with its total.
type ListResult struct {
	Items []store.Expense `json:"items"`
	Total decimal.Decimal `json:"total"`
	From  time.Time       `json:"from"`
	To    time.Time       `json:"to"`
}

// List returns expenses newest first with the sum of their amounts.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, error) {
	if s == nil || s.Q == nil {
		return ListResult{}, errors.New("expense service not configured")
	}
	if p.From.IsZero() {
		y, m, _ := s.now().Date()
		p.From = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
	if p.To.IsZero() {
		p.To = p.From.AddDate(0, 1, 0)
	}
	if !p.To.After(p.From) {
		return ListResult{}, fmt.Errorf("to must be after from: %w", ErrInvalidInput)
	}
	items, err := s.Q.ListExpenses(ctx, store.ListExpensesParams{
		BranchID: p.BranchID,
		Category: strings.TrimSpace(p.Category),
		Status:   strings.TrimSpace(p.Status),
		From:     p.From,
		To:       p.To,
	})
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []store.Expense{}
	}
	total := decimal.Zero
	for _, e := range items {
		total = total.Add(e.Amount)
	}
	return ListResult{Items: items, Total: pricing.Round2(total), From: p.From, To: p.To}, nil
}
