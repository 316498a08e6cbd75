// Package checkout turns a cart into a persisted sale.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-salon/internal/cart"
	"github.com/noah-isme/backend-salon/internal/coupon"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/inventory"
	"github.com/noah-isme/backend-salon/internal/lock"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/pricing"
	"github.com/noah-isme/backend-salon/internal/store"
)

var (
	// ErrEmptyCart is returned when finalising a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrContention is the parent of failures caused by a concurrent sale; retrying may succeed.
	ErrContention = errors.New("concurrent update")
	// ErrCouponExhausted means the coupon's last use went to another sale.
	ErrCouponExhausted = fmt.Errorf("coupon no longer available: %w", ErrContention)
	// ErrStockExhausted means a consumable ran out between cart and finalisation.
	ErrStockExhausted = fmt.Errorf("insufficient stock: %w", ErrContention)
	// ErrCouponInvalid is wrapped by CouponError.
	ErrCouponInvalid = errors.New("coupon invalid")
	// ErrInvalidInput covers bad payment methods and vanished customers.
	ErrInvalidInput = errors.New("invalid input")
)

// CouponError reports why the cart's coupon no longer applies.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string { return e.Reason }

func (e *CouponError) Unwrap() error { return ErrCouponInvalid }

// Carts loads and clears checkout sessions.
type Carts interface {
	Get(ctx context.Context, id uuid.UUID) (cart.Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Coupons returns the current state of a coupon code.
type Coupons interface {
	Lookup(ctx context.Context, code string) ([]coupon.Coupon, error)
}

// Querier is the subset of store queries finalisation runs.
type Querier interface {
	GetSettings(ctx context.Context) (store.Settings, error)
	CreateSale(ctx context.Context, arg store.CreateSaleParams) (store.Sale, error)
	CreateSaleItem(ctx context.Context, arg store.CreateSaleItemParams) (store.SaleItem, error)
	ConsumeCoupon(ctx context.Context, id uuid.UUID, now time.Time) (store.Coupon, error)
	ListServiceConsumables(ctx context.Context, serviceIDs []uuid.UUID) ([]store.ServiceConsumable, error)
	ConsumeStock(ctx context.Context, id uuid.UUID, qty int32) (store.InventoryItem, error)
	ApplySaleToCustomer(ctx context.Context, arg store.ApplySaleToCustomerParams) (store.Customer, error)
	InsertCustomerActivity(ctx context.Context, arg store.InsertCustomerActivityParams) (store.CustomerActivity, error)
}

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Querier) error) error
}

// Locker guards a key for the duration of fn.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Notifier publishes domain events with an inbox notice.
type Notifier interface {
	EmitNotice(ctx context.Context, topic string, aggregateID uuid.UUID, notice events.Notice, data any) (store.DomainEvent, error)
}

// ReceiptQueue schedules receipt rendering for a sale.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID) error
}

// Input identifies the cart to finalise. PaymentMethod overrides the cart's when set.
type Input struct {
	CartID        uuid.UUID
	StaffID       *uuid.UUID
	PaymentMethod string
}

// Result is the committed sale.
type Result struct {
	Sale                store.Sale       `json:"sale"`
	Items               []store.SaleItem `json:"items"`
	Customer            *store.Customer  `json:"customer,omitempty"`
	LoyaltyPointsEarned int64            `json:"loyaltyPointsEarned"`

	lowStock []store.InventoryItem
}

// Service finalises carts.
type Service struct {
	Carts    Carts
	Coupons  Coupons
	Q        Querier
	Tx       TxRunner
	Locker   Locker
	LockTTL  time.Duration
	Invoices InvoiceAllocator
	Events   Notifier
	Receipts ReceiptQueue
	Logger   *zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Finalize persists the cart as a completed sale. All writes share one
// transaction. Clearing the cart, notifications and the receipt job happen
// after commit and never fail the call.
func (s *Service) Finalize(ctx context.Context, in Input) (Result, error) {
	if s == nil || s.Carts == nil || s.Q == nil || s.Tx == nil || s.Invoices == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("cart.id", in.CartID.String()))
	started := time.Now()

	c, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		return Result{}, s.fail(span, err)
	}
	if c.IsEmpty() {
		return Result{}, s.fail(span, ErrEmptyCart)
	}

	// The cart is cleared before the lock is released so a queued duplicate
	// submit finds nothing to finalise.
	var res Result
	run := func(ctx context.Context) error {
		var err error
		if res, err = s.finalize(ctx, in); err != nil {
			return err
		}
		if err := s.Carts.Delete(ctx, in.CartID); err != nil {
			s.logger().Warn().Err(err).Str("cart", in.CartID.String()).Msg("clear cart failed")
		}
		return nil
	}
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, lock.CartKey(in.CartID), s.LockTTL, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return Result{}, s.fail(span, err)
	}

	s.afterCommit(ctx, res)
	obs.IncCounter(obs.SalesFinalizedTotal, "completed")
	if obs.SaleFinalizeDuration != nil {
		obs.SaleFinalizeDuration.Observe(obs.DurationMillis(time.Since(started)))
	}
	span.SetAttributes(attribute.String("sale.invoice", res.Sale.InvoiceNumber))
	return res, nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	obs.IncCounter(obs.SalesFinalizedTotal, outcomeLabel(err))
	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrContention):
		return "contention"
	case errors.Is(err, ErrCouponInvalid):
		return "coupon_invalid"
	case errors.Is(err, cart.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// finalize runs under the cart lock. The cart is reloaded because a
// concurrent submit may have finished and cleared it while we waited.
func (s *Service) finalize(ctx context.Context, in Input) (Result, error) {
	now := s.now()
	c, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		return Result{}, err
	}
	if c.IsEmpty() {
		return Result{}, ErrEmptyCart
	}
	if in.PaymentMethod != "" {
		if err := c.SetPaymentMethod(in.PaymentMethod); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if in.StaffID != nil {
		c.StaffID = in.StaffID
	}

	if c.Coupon != nil {
		if err := s.refreshCoupon(ctx, &c, now); err != nil {
			return Result{}, err
		}
	}
	totals := c.Totals(now)
	if totals.CouponError != "" {
		return Result{}, &CouponError{Code: totals.CouponCode, Reason: totals.CouponError}
	}

	settings, err := s.Q.GetSettings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load settings: %w", err)
	}

	invoice := s.Invoices.Next()
	var res Result
	err = s.Tx.InTx(ctx, func(q Querier) error {
		var err error
		res, err = s.persist(ctx, q, c, totals, invoice, settings.LoyaltyPointsRate, now)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// refreshCoupon replaces the cart's snapshot with the stored coupon so that
// usage and expiry reflect sales made since it was applied.
func (s *Service) refreshCoupon(ctx context.Context, c *cart.Cart, now time.Time) error {
	if s.Coupons == nil {
		return nil
	}
	entries, err := s.Coupons.Lookup(ctx, c.Coupon.Code)
	if err != nil {
		return fmt.Errorf("lookup coupon: %w", err)
	}
	res := coupon.Validate(c.Coupon.Code, c.Subtotal(), entries, now)
	if !res.Valid {
		return &CouponError{Code: c.Coupon.Code, Reason: res.Reason}
	}
	c.Coupon = res.Coupon
	return nil
}

func (s *Service) persist(ctx context.Context, q Querier, c cart.Cart, totals cart.Totals, invoice string, loyaltyRate decimal.Decimal, now time.Time) (Result, error) {
	var customerID *uuid.UUID
	if c.Customer != nil {
		id := c.Customer.ID
		customerID = &id
	}
	var couponCode *string
	if c.Coupon != nil {
		code := c.Coupon.Code
		couponCode = &code
	}
	sale, err := q.CreateSale(ctx, store.CreateSaleParams{
		InvoiceNumber:  invoice,
		BranchID:       c.BranchID,
		CustomerID:     customerID,
		StaffID:        c.StaffID,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		CGST:           totals.CGST,
		SGST:           totals.SGST,
		IGST:           totals.IGST,
		CouponCode:     couponCode,
		CouponDiscount: totals.CouponDiscount,
		ManualDiscount: totals.ManualDiscount,
		Discount:       totals.Discount,
		Total:          totals.GrandTotal,
		PaymentMethod:  c.PaymentMethod,
		Status:         store.SaleStatusCompleted,
		CreatedAt:      now,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create sale: %w", err)
	}
	res := Result{Sale: sale, Items: make([]store.SaleItem, 0, len(c.Items))}

	serviceIDs := make([]uuid.UUID, 0, len(c.Items))
	perService := make(map[uuid.UUID]int32, len(c.Items))
	for _, it := range c.Items {
		item, err := q.CreateSaleItem(ctx, store.CreateSaleItemParams{
			SaleID:      sale.ID,
			ServiceID:   it.ServiceID,
			ServiceName: it.ServiceName,
			Variant:     it.Variant,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Quantity:    int32(it.Quantity),
			LineTotal:   pricing.Round2(it.LineTotal),
			TaxAmount:   pricing.Round2(it.LineTotal.Mul(it.TaxRate).Div(decimal.NewFromInt(100))),
		})
		if err != nil {
			return Result{}, fmt.Errorf("create sale item: %w", err)
		}
		res.Items = append(res.Items, item)
		if _, seen := perService[it.ServiceID]; !seen {
			serviceIDs = append(serviceIDs, it.ServiceID)
		}
		perService[it.ServiceID] += int32(it.Quantity)
	}

	if c.Coupon != nil {
		if _, err := q.ConsumeCoupon(ctx, c.Coupon.ID, now); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Result{}, ErrCouponExhausted
			}
			return Result{}, fmt.Errorf("consume coupon: %w", err)
		}
	}

	low, err := consumeStock(ctx, q, serviceIDs, perService)
	if err != nil {
		return Result{}, err
	}
	res.lowStock = low

	if customerID != nil {
		points := pricing.FloorPoints(totals.GrandTotal, loyaltyRate)
		cust, err := q.ApplySaleToCustomer(ctx, store.ApplySaleToCustomerParams{
			ID:            *customerID,
			Amount:        totals.GrandTotal,
			LoyaltyPoints: points,
			VisitedAt:     now,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Result{}, fmt.Errorf("%w: customer no longer exists", ErrInvalidInput)
			}
			return Result{}, fmt.Errorf("update customer: %w", err)
		}
		ref := invoice
		if _, err := q.InsertCustomerActivity(ctx, store.InsertCustomerActivityParams{
			CustomerID:  *customerID,
			Kind:        customer.ActivityPurchase,
			Description: "Purchase completed - " + invoice,
			Amount:      decimal.NewNullDecimal(totals.GrandTotal),
			Reference:   &ref,
			CreatedAt:   now,
		}); err != nil {
			return Result{}, fmt.Errorf("record activity: %w", err)
		}
		res.Customer = &cust
		res.LoyaltyPointsEarned = points
	}
	return res, nil
}

// consumeStock decrements every consumable the sold services use and
// returns the items that dropped into low stock because of this sale.
func consumeStock(ctx context.Context, q Querier, serviceIDs []uuid.UUID, perService map[uuid.UUID]int32) ([]store.InventoryItem, error) {
	consumables, err := q.ListServiceConsumables(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("list consumables: %w", err)
	}
	var order []uuid.UUID
	needed := make(map[uuid.UUID]int32)
	for _, cons := range consumables {
		if _, seen := needed[cons.InventoryItemID]; !seen {
			order = append(order, cons.InventoryItemID)
		}
		needed[cons.InventoryItemID] += cons.Quantity * perService[cons.ServiceID]
	}
	var low []store.InventoryItem
	for _, id := range order {
		qty := needed[id]
		if qty <= 0 {
			continue
		}
		item, err := q.ConsumeStock(ctx, id, qty)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrStockExhausted
			}
			return nil, fmt.Errorf("consume stock: %w", err)
		}
		if inventory.IsLow(item) && item.CurrentStock+qty > item.MinStock {
			low = append(low, item)
		}
	}
	return low, nil
}

func (s *Service) afterCommit(ctx context.Context, res Result) {
	log := s.logger()
	sale := res.Sale
	if s.Events != nil {
		notice := events.Notice{
			Title:         "Sale Completed",
			Message:       fmt.Sprintf("Sale %s completed for ₹%s", sale.InvoiceNumber, sale.Total.StringFixed(2)),
			Kind:          "success",
			Priority:      events.PriorityLow,
			BranchID:      sale.BranchID,
			RelatedEntity: "sale",
		}
		if _, err := s.Events.EmitNotice(ctx, events.TopicSaleCompleted, sale.ID, notice, res); err != nil {
			log.Warn().Err(err).Str("invoice", sale.InvoiceNumber).Msg("emit sale completed failed")
		}
		for _, item := range res.lowStock {
			if obs.InventoryLowStockTotal != nil {
				obs.InventoryLowStockTotal.Inc()
			}
			notice := inventory.LowStockNotice(item)
			if _, err := s.Events.EmitNotice(ctx, events.TopicInventoryLowStock, item.ID, notice, inventory.View(item)); err != nil {
				log.Warn().Err(err).Str("item", item.ID.String()).Msg("emit low stock failed")
			}
		}
	}
	if s.Receipts != nil {
		if err := s.Receipts.EnqueueReceipt(ctx, sale.ID); err != nil {
			log.Warn().Err(err).Str("invoice", sale.InvoiceNumber).Msg("enqueue receipt failed")
		}
	}
}
