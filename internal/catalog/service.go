// Package catalog manages the salon services that can be sold.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

// DefaultVariant is used when a service declares no variants.
const DefaultVariant = "Regular"

// ErrNotFound is returned for unknown service identifiers.
var ErrNotFound = errors.New("service not found")

// ErrInvalidInput is returned when a service definition is rejected.
var ErrInvalidInput = errors.New("invalid service")

// Querier captures the store methods used by the catalog.
type Querier interface {
	CreateService(ctx context.Context, arg store.UpsertServiceParams) (store.Service, error)
	UpdateService(ctx context.Context, arg store.UpsertServiceParams) (store.Service, error)
	GetService(ctx context.Context, id uuid.UUID) (store.Service, error)
	ListServices(ctx context.Context, arg store.ListServicesParams) ([]store.Service, error)
	SetServiceActive(ctx context.Context, id uuid.UUID, active bool) (store.Service, error)
	ListServiceConsumables(ctx context.Context, serviceIDs []uuid.UUID) ([]store.ServiceConsumable, error)
	UpsertServiceConsumable(ctx context.Context, arg store.ServiceConsumable) error
	DeleteServiceConsumables(ctx context.Context, serviceID uuid.UUID) error
}

// Item is a service together with the stock it consumes per unit sold.
type Item struct {
	store.Service
	Consumables []store.ServiceConsumable `json:"consumables"`
}

// HasVariant reports whether variant is offered by the service.
func (it Item) HasVariant(variant string) bool {
	for _, v := range it.Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// Consumable links an inventory item to a service.
type Consumable struct {
	InventoryItemID uuid.UUID `json:"inventoryItemId" validate:"required"`
	Quantity        int32     `json:"quantity" validate:"gt=0"`
}

// Input is a create or update request.
type Input struct {
	BranchID        *uuid.UUID
	Name            string
	Category        string
	Description     string
	Price           decimal.Decimal
	DurationMinutes int32
	TaxRate         *decimal.Decimal
	Variants        []string
	IsActive        bool
	Consumables     []Consumable
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return in, fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return in, fmt.Errorf("price must not be negative: %w", ErrInvalidInput)
	}
	if in.TaxRate == nil {
		rate := pricing.DefaultRate
		in.TaxRate = &rate
	}
	if !pricing.IsKnownRate(*in.TaxRate) {
		return in, fmt.Errorf("taxRate %s is not a GST slab: %w", in.TaxRate.String(), ErrInvalidInput)
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = 30
	}
	variants := make([]string, 0, len(in.Variants))
	for _, v := range in.Variants {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}
	if len(variants) == 0 {
		variants = []string{DefaultVariant}
	}
	in.Variants = variants
	return in, nil
}

func (in Input) params(id uuid.UUID) store.UpsertServiceParams {
	return store.UpsertServiceParams{
		ID:              id,
		BranchID:        in.BranchID,
		Name:            in.Name,
		Category:        in.Category,
		Description:     in.Description,
		Price:           pricing.Round2(in.Price),
		DurationMinutes: in.DurationMinutes,
		TaxRate:         *in.TaxRate,
		Variants:        in.Variants,
		IsActive:        in.IsActive,
	}
}

// ListParams filters List.
type ListParams struct {
	BranchID        *uuid.UUID
	Category        string
	IncludeInactive bool
}

func (p ListParams) cacheKey() string {
	branch := "all"
	if p.BranchID != nil {
		branch = p.BranchID.String()
	}
	return fmt.Sprintf("list:%s:%s:%t", branch, strings.ToLower(p.Category), p.IncludeInactive)
}

// Service reads and writes the catalog, caching reads in Redis.
type Service struct {
	Q      Querier
	Cache  *Cache
	Logger *zerolog.Logger
}

// List returns services visible to a branch.
func (s *Service) List(ctx context.Context, params ListParams) ([]store.Service, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("catalog service not configured")
	}
	key := params.cacheKey()
	var cached []store.Service
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.Q.ListServices(ctx, store.ListServicesParams{
		BranchID:   params.BranchID,
		Category:   strings.TrimSpace(params.Category),
		ActiveOnly: !params.IncludeInactive,
	})
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if rows == nil {
		rows = []store.Service{}
	}
	if err := s.Cache.SetJSON(ctx, key, rows); err != nil {
		s.logWarn(err, "catalog cache write failed")
	}
	return rows, nil
}

// Get returns one service with its consumables.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("catalog service not configured")
	}
	key := "service:" + id.String()
	var cached Item
	if ok, err := s.Cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	row, err := s.Q.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("get service: %w", err)
	}
	consumables, err := s.Q.ListServiceConsumables(ctx, []uuid.UUID{id})
	if err != nil {
		return Item{}, fmt.Errorf("list consumables: %w", err)
	}
	if consumables == nil {
		consumables = []store.ServiceConsumable{}
	}
	item := Item{Service: row, Consumables: consumables}
	if err := s.Cache.SetJSON(ctx, key, item); err != nil {
		s.logWarn(err, "catalog cache write failed")
	}
	return item, nil
}

// Create adds a service.
func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("catalog service not configured")
	}
	in, err := in.normalize()
	if err != nil {
		return Item{}, err
	}
	row, err := s.Q.CreateService(ctx, in.params(uuid.Nil))
	if err != nil {
		return Item{}, fmt.Errorf("create service: %w", err)
	}
	return s.finishWrite(ctx, row, in.Consumables)
}

// Update replaces a service definition and its consumables.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Item, error) {
	if s == nil || s.Q == nil {
		return Item{}, errors.New("catalog service not configured")
	}
	in, err := in.normalize()
	if err != nil {
		return Item{}, err
	}
	row, err := s.Q.UpdateService(ctx, in.params(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("update service: %w", err)
	}
	if err := s.Q.DeleteServiceConsumables(ctx, id); err != nil {
		return Item{}, fmt.Errorf("reset consumables: %w", err)
	}
	return s.finishWrite(ctx, row, in.Consumables)
}

// Deactivate hides a service from the point of sale. Past sales keep their snapshot.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (store.Service, error) {
	if s == nil || s.Q == nil {
		return store.Service{}, errors.New("catalog service not configured")
	}
	row, err := s.Q.SetServiceActive(ctx, id, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Service{}, ErrNotFound
		}
		return store.Service{}, err
	}
	s.invalidate(ctx)
	return row, nil
}

func (s *Service) finishWrite(ctx context.Context, row store.Service, consumables []Consumable) (Item, error) {
	item := Item{Service: row, Consumables: make([]store.ServiceConsumable, 0, len(consumables))}
	for _, c := range consumables {
		link := store.ServiceConsumable{ServiceID: row.ID, InventoryItemID: c.InventoryItemID, Quantity: c.Quantity}
		if err := s.Q.UpsertServiceConsumable(ctx, link); err != nil {
			return Item{}, fmt.Errorf("link consumable: %w", err)
		}
		item.Consumables = append(item.Consumables, link)
	}
	s.invalidate(ctx)
	return item, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.logWarn(err, "catalog cache invalidation failed")
	}
}

func (s *Service) logWarn(err error, msg string) {
	if s.Logger != nil {
		s.Logger.Warn().Err(err).Msg(msg)
	}
}
