// Package sales exposes finalized sales: listing, detail, cancellation and receipts.
package sales

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
	"github.com/noah-isme/backend-salon/internal/store"
)

var (
	// ErrNotFound is returned for unknown sales.
	ErrNotFound = errors.New("sale not found")
	// ErrNotCancellable is returned when the sale is not Completed.
	ErrNotCancellable = errors.New("only completed sales can be cancelled")
	// ErrInvalidInput is returned for a missing reason or an inverted range.
	ErrInvalidInput = errors.New("invalid input")
)

// Querier captures the store methods used for sales.
type Querier interface {
	GetSale(ctx context.Context, id uuid.UUID) (store.Sale, error)
	ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]store.SaleItem, error)
	ListSales(ctx context.Context, arg store.ListSalesParams) ([]store.Sale, error)
	CountSales(ctx context.Context, arg store.CountSalesParams) (int64, error)
	CancelSale(ctx context.Context, arg store.CancelSaleParams) (store.Sale, error)
	GetSettings(ctx context.Context) (store.Settings, error)
}

// Notifier emits events with an inbox notice.
type Notifier interface {
	EmitNotice(ctx context.Context, topic string, aggregateID uuid.UUID, notice events.Notice, data any) (store.DomainEvent, error)
}

// Service reads and cancels sales.
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

// Detail is a sale with its line snapshots.
type Detail struct {
	store.Sale
	Items []store.SaleItem `json:"items"`
}

// ListParams filters a sales listing. Zero From/To default to the last 30 days.
type ListParams struct {
	BranchID   *uuid.UUID
	CustomerID *uuid.UUID
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// ListResult is one page of sales.
type ListResult struct {
	Items []store.Sale
	Total int64
}

// List returns sales newest first.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, error) {
	if s == nil || s.Q == nil {
		return ListResult{}, errors.New("sales service not configured")
	}
	if p.To.IsZero() {
		p.To = s.now()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -30)
	}
	if !p.From.Before(p.To) {
		return ListResult{}, fmt.Errorf("from must be before to: %w", ErrInvalidInput)
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	items, err := s.Q.ListSales(ctx, store.ListSalesParams{
		BranchID: p.BranchID, CustomerID: p.CustomerID, From: p.From, To: p.To,
		Limit: int32(p.Limit), Offset: int32(p.Offset),
	})
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.Q.CountSales(ctx, store.CountSalesParams{
		BranchID: p.BranchID, CustomerID: p.CustomerID, From: p.From, To: p.To,
	})
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []store.Sale{}
	}
	return ListResult{Items: items, Total: total}, nil
}

// Get loads a sale and its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Detail, error) {
	if s == nil || s.Q == nil {
		return Detail{}, errors.New("sales service not configured")
	}
	sale, err := s.Q.GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Detail{}, ErrNotFound
		}
		return Detail{}, err
	}
	items, err := s.Q.ListSaleItems(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if items == nil {
		items = []store.SaleItem{}
	}
	return Detail{Sale: sale, Items: items}, nil
}

// Cancel marks a Completed sale Cancelled. Money fields, coupon usage, stock
// and customer aggregates are left as they are.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (store.Sale, error) {
	if s == nil || s.Q == nil {
		return store.Sale{}, errors.New("sales service not configured")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return store.Sale{}, fmt.Errorf("reason is required: %w", ErrInvalidInput)
	}
	sale, err := s.Q.CancelSale(ctx, store.CancelSaleParams{ID: id, Reason: reason, CancelledAt: s.now()})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return store.Sale{}, err
		}
		if _, getErr := s.Q.GetSale(ctx, id); getErr != nil {
			if errors.Is(getErr, pgx.ErrNoRows) {
				return store.Sale{}, ErrNotFound
			}
			return store.Sale{}, getErr
		}
		return store.Sale{}, ErrNotCancellable
	}
	if s.Events != nil {
		notice := events.Notice{
			Title:         "Sale Cancelled",
			Message:       fmt.Sprintf("Sale %s was cancelled: %s", sale.InvoiceNumber, reason),
			Kind:          "warning",
			Priority:      events.PriorityMedium,
			BranchID:      sale.BranchID,
			RelatedEntity: "sale",
		}
		if _, err := s.Events.EmitNotice(ctx, events.TopicSaleCancelled, sale.ID, notice, sale); err != nil && s.Logger != nil {
			s.Logger.Warn().Err(err).Str("invoice", sale.InvoiceNumber).Msg("emit sale cancelled failed")
		}
	}
	return sale, nil
}

// Receipt renders the PDF receipt of a sale.
func (s *Service) Receipt(ctx context.Context, id uuid.UUID) (Detail, []byte, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return Detail{}, nil, err
	}
	settings, err := s.Q.GetSettings(ctx)
	if err != nil {
		return Detail{}, nil, fmt.Errorf("load settings: %w", err)
	}
	pdf, err := RenderReceipt(d, settings)
	if err != nil {
		return Detail{}, nil, err
	}
	return d, pdf, nil
}
