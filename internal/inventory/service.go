// Package inventory tracks retail and back-bar stock.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/store"
)

// Stock statuses.
const (
	StatusInStock  = "In Stock"
	StatusLowStock = "Low Stock"
)

var (
	// ErrNotFound is returned for unknown items.
	ErrNotFound = errors.New("inventory item not found")
	// ErrInvalidInput is returned when an item fails validation.
	ErrInvalidInput = errors.New("invalid inventory item")
	// ErrInsufficientStock is returned when an adjustment would go below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Querier captures the store methods used for inventory.
type Querier interface {
	CreateInventoryItem(ctx context.Context, arg store.UpsertInventoryItemParams) (store.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, arg store.UpsertInventoryItemParams) (store.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id uuid.UUID) (store.InventoryItem, error)
	ListInventoryItems(ctx context.Context, branchID *uuid.UUID, lowStockOnly bool) ([]store.InventoryItem, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int32) (store.InventoryItem, error)
}

// Notifier emits events with an inbox notice.
type Notifier interface {
	EmitNotice(ctx context.Context, topic string, aggregateID uuid.UUID, notice events.Notice, data any) (store.DomainEvent, error)
}

// Item is an inventory row with its derived fields.
type Item struct {
	store.InventoryItem
	Status     string          `json:"status"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// IsLow reports whether stock is at or below the minimum.
func IsLow(it store.InventoryItem) bool {
	return it.CurrentStock <= it.MinStock
}

// View derives status and value.
func View(it store.InventoryItem) Item {
	status := StatusInStock
	if IsLow(it) {
		status = StatusLowStock
	}
	return Item{
		InventoryItem: it,
		Status:        status,
		TotalValue:    it.CostPrice.Mul(decimal.NewFromInt(int64(it.CurrentStock))).Round(2),
	}
}

// Input is the editable part of an item. CurrentStock is only read on create.
type Input struct {
	BranchID     *uuid.UUID
	Name         string
	Category     string
	Unit         string
	Supplier     string
	CurrentStock int32
	MinStock     int32
	MaxStock     int32
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

func (in Input) params(id uuid.UUID) (store.UpsertInventoryItemParams, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return store.UpsertInventoryItemParams{}, fmt.Errorf("name is required: %w", ErrInvalidInput)
	case in.CurrentStock < 0 || in.MinStock < 0 || in.MaxStock < 0:
		return store.UpsertInventoryItemParams{}, fmt.Errorf("stock levels must not be negative: %w", ErrInvalidInput)
	case in.MaxStock > 0 && in.MinStock > in.MaxStock:
		return store.UpsertInventoryItemParams{}, fmt.Errorf("minStock must not exceed maxStock: %w", ErrInvalidInput)
	case in.CostPrice.IsNegative() || in.SellingPrice.IsNegative():
		return store.UpsertInventoryItemParams{}, fmt.Errorf("prices must not be negative: %w", ErrInvalidInput)
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "units"
	}
	return store.UpsertInventoryItemParams{
		ID: id, BranchID: in.BranchID, Name: in.Name, Category: strings.TrimSpace(in.Category), Unit: unit,
		Supplier: strings.TrimSpace(in.Supplier), CurrentStock: in.CurrentStock, MinStock: in.MinStock,
		MaxStock: in.MaxStock, CostPrice: in.CostPrice, SellingPrice: in.SellingPrice,
	}, nil
}

// Service manages inventory items.
type Service struct {
	Q      Querier
	Events Notifier
	Logger *zerolog.Logger
}

// List returns items by name, optionally only those in low stock.
func (s *Service) List(ctx context.Context, branchID *uuid.UUID, lowOnly bool) ([]Item, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("inventory service not configured")
	}
	rows, err := s.Q.ListInventoryItems(ctx, branchID, lowOnly)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, View(r))
	}
	return out, nil
}

// Get loads one item.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	it, err := s.Q.GetInventoryItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return View(it), nil
}

// Create adds an item.
func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("inventory service not configured")
	}
	params, err := in.params(uuid.Nil)
	if err != nil {
		return Item{}, err
	}
	it, err := s.Q.CreateInventoryItem(ctx, params)
	if err != nil {
		return Item{}, err
	}
	return View(it), nil
}

// Update edits everything but the stock level.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Item, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	in.BranchID = before.BranchID
	params, err := in.params(id)
	if err != nil {
		return Item{}, err
	}
	it, err := s.Q.UpdateInventoryItem(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	s.notifyTransition(ctx, before.InventoryItem, it)
	return View(it), nil
}

// Adjust moves stock by a signed delta such as a delivery or a write-off.
func (s *Service) Adjust(ctx context.Context, id uuid.UUID, delta int32) (Item, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if delta == 0 {
		return before, nil
	}
	it, err := s.Q.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrInsufficientStock
		}
		return Item{}, err
	}
	s.notifyTransition(ctx, before.InventoryItem, it)
	return View(it), nil
}

// notifyTransition raises a low stock alert only when the item crosses into low stock.
func (s *Service) notifyTransition(ctx context.Context, before, after store.InventoryItem) {
	if IsLow(before) || !IsLow(after) {
		return
	}
	if obs.InventoryLowStockTotal != nil {
		obs.InventoryLowStockTotal.Inc()
	}
	if s.Events == nil {
		return
	}
	notice := LowStockNotice(after)
	if _, err := s.Events.EmitNotice(ctx, events.TopicInventoryLowStock, after.ID, notice, View(after)); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Str("item", after.ID.String()).Msg("emit low stock failed")
	}
}

// LowStockNotice is the inbox entry for an item that dropped into low stock.
func LowStockNotice(it store.InventoryItem) events.Notice {
	return events.Notice{
		Title:         "Low Stock Alert",
		Message:       fmt.Sprintf("%s is running low (%d units remaining)", it.Name, it.CurrentStock),
		Kind:          "warning",
		Priority:      events.PriorityHigh,
		BranchID:      it.BranchID,
		RelatedEntity: "inventory",
	}
}
