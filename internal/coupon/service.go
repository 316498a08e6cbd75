package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/store"
)

// ErrNotFound is returned when no coupon has the requested code.
var ErrNotFound = errors.New("coupon not found")

// ErrDuplicateCode is returned when a coupon code is already taken.
var ErrDuplicateCode = errors.New("coupon code already exists")

// Querier captures the database methods required by the coupon service.
type Querier interface {
	ListCoupons(ctx context.Context) ([]store.Coupon, error)
	ListCouponsByCode(ctx context.Context, code string) ([]store.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (store.Coupon, error)
	CreateCoupon(ctx context.Context, arg store.CreateCouponParams) (store.Coupon, error)
	UpdateCoupon(ctx context.Context, arg store.UpdateCouponParams) (store.Coupon, error)
	SetCouponActive(ctx context.Context, code string, active bool) (store.Coupon, error)
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic string, aggregateID uuid.UUID, payload any) (store.DomainEvent, error)
}

// Service exposes the coupon catalog and read-only validation.
type Service struct {
	Q      Querier
	Events Emitter
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Validate checks code against amount using the persisted catalog. It never
// changes usedCount.
func (s *Service) Validate(ctx context.Context, code string, amount decimal.Decimal) (Result, error) {
	if s == nil || s.Q == nil {
		return Result{}, errors.New("coupon service not configured")
	}
	catalog, err := s.Lookup(ctx, code)
	if err != nil {
		return Result{}, err
	}
	res := Validate(code, amount, catalog, s.now())
	obs.IncCounter(obs.CouponValidationsTotal, ResultLabel(res))
	return res, nil
}

// Lookup loads the catalog entries sharing code. A blank code matches nothing.
func (s *Service) Lookup(ctx context.Context, code string) ([]Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	if code == "" {
		return nil, nil
	}
	rows, err := s.Q.ListCouponsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return FromRows(rows), nil
}

// List returns every coupon, newest first.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("coupon service not configured")
	}
	rows, err := s.Q.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}
	return FromRows(rows), nil
}

// Get returns one coupon by code.
func (s *Service) Get(ctx context.Context, code string) (Coupon, error) {
	if s == nil || s.Q == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	row, err := s.Q.GetCouponByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, err
	}
	return FromRow(row), nil
}

// Create stores a new coupon with a zero usage count.
func (s *Service) Create(ctx context.Context, in Coupon) (Coupon, error) {
	if s == nil || s.Q == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	in.UsedCount = 0
	c, err := NewCoupon(in)
	if err != nil {
		return Coupon{}, err
	}
	row, err := s.Q.CreateCoupon(ctx, store.CreateCouponParams{
		Code:        c.Code,
		Description: c.Description,
		Type:        string(c.Type),
		Value:       c.Value,
		MinAmount:   c.MinAmount,
		MaxDiscount: c.MaxDiscount,
		UsageLimit:  int32(c.UsageLimit),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		IsActive:    c.IsActive,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Coupon{}, ErrDuplicateCode
		}
		return Coupon{}, err
	}
	created := FromRow(row)
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicCouponCreated, created.ID, map[string]any{
			"code": created.Code,
			"type": created.Type,
		})
	}
	return created, nil
}

// Update replaces the definition of an existing coupon. The usage count is
// kept and the new usage limit may not drop below it.
func (s *Service) Update(ctx context.Context, code string, in Coupon) (Coupon, error) {
	current, err := s.Get(ctx, code)
	if err != nil {
		return Coupon{}, err
	}
	in.Code = current.Code
	in.UsedCount = current.UsedCount
	c, err := NewCoupon(in)
	if err != nil {
		return Coupon{}, err
	}
	row, err := s.Q.UpdateCoupon(ctx, store.UpdateCouponParams{
		Code:        c.Code,
		Description: c.Description,
		Type:        string(c.Type),
		Value:       c.Value,
		MinAmount:   c.MinAmount,
		MaxDiscount: c.MaxDiscount,
		UsageLimit:  int32(c.UsageLimit),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		IsActive:    c.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		if store.IsCheckViolation(err) {
			return Coupon{}, fmt.Errorf("usageLimit below usedCount: %w", ErrInvalidCoupon)
		}
		return Coupon{}, err
	}
	return FromRow(row), nil
}

// Deactivate switches a coupon off. Coupons are never deleted.
func (s *Service) Deactivate(ctx context.Context, code string) (Coupon, error) {
	if s == nil || s.Q == nil {
		return Coupon{}, errors.New("coupon service not configured")
	}
	row, err := s.Q.SetCouponActive(ctx, strings.TrimSpace(code), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Coupon{}, ErrNotFound
		}
		return Coupon{}, err
	}
	return FromRow(row), nil
}

// FromRow converts a persisted coupon.
func FromRow(row store.Coupon) Coupon {
	return Coupon{
		ID:          row.ID,
		Code:        row.Code,
		Description: row.Description,
		Type:        Kind(row.Type),
		Value:       row.Value,
		MinAmount:   row.MinAmount,
		MaxDiscount: row.MaxDiscount,
		UsageLimit:  int(row.UsageLimit),
		UsedCount:   int(row.UsedCount),
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		IsActive:    row.IsActive,
	}
}

// FromRows converts a slice of persisted coupons.
func FromRows(rows []store.Coupon) []Coupon {
	out := make([]Coupon, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out
}

// ResultLabel maps a result to a low-cardinality metric label.
func ResultLabel(res Result) string {
	switch {
	case res.Valid:
		return "valid"
	case res.Reason == ReasonInvalidCode:
		return "invalid_code"
	case res.Reason == ReasonLimitExceeded:
		return "limit_exceeded"
	case res.Reason == ReasonExpired:
		return "expired"
	case res.Reason == ReasonNotYetActive:
		return "not_yet_active"
	case strings.HasPrefix(res.Reason, reasonMinimumPrefix):
		return "below_minimum"
	default:
		return "invalid"
	}
}
