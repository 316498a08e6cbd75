package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/coupon"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/store"
)

// ErrNotFound indicates the requested cart could not be located or has expired.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when a referenced service or customer cannot be used.
var ErrInvalidInput = errors.New("invalid input")

// ErrCouponRejected wraps the validator's reason when a coupon cannot be applied.
var ErrCouponRejected = errors.New("coupon rejected")

// Catalog resolves services being added to a cart.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (catalog.Item, error)
}

// Coupons looks coupon codes up in the catalog.
type Coupons interface {
	Lookup(ctx context.Context, code string) ([]coupon.Coupon, error)
}

// Customers resolves customers bound to a cart.
type Customers interface {
	Get(ctx context.Context, id uuid.UUID) (store.Customer, error)
}

// Service keeps carts as JSON documents in Redis.
type Service struct {
	R         *redis.Client
	TTL       time.Duration
	Catalog   Catalog
	Coupons   Coupons
	Customers Customers
	Now       func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Clock returns the service's current time.
func (s *Service) Clock() time.Time {
	return s.now()
}

func key(id uuid.UUID) string {
	return "cart:" + id.String()
}

// Create starts an empty cart.
func (s *Service) Create(ctx context.Context, branchID, staffID *uuid.UUID) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	c := New(uuid.New(), s.now())
	c.BranchID = branchID
	c.StaffID = staffID
	if err := s.save(ctx, s.R, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Get loads a cart.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	return s.load(ctx, s.R, id)
}

// Delete resets a cart by removing it. Deleting a missing cart is not an error.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.R == nil {
		return errors.New("cart service not configured")
	}
	return s.R.Del(ctx, key(id)).Err()
}

// AddItem adds qty of a service variant.
func (s *Service) AddItem(ctx context.Context, id, serviceID uuid.UUID, variant string, qty int) (Cart, error) {
	if s == nil || s.Catalog == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	item, err := s.Catalog.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Cart{}, fmt.Errorf("service %s: %w", serviceID, ErrInvalidInput)
		}
		return Cart{}, err
	}
	if !item.IsActive {
		return Cart{}, fmt.Errorf("service %s is inactive: %w", item.Name, ErrInvalidInput)
	}
	variant = normalizeVariant(variant)
	if len(item.Variants) > 0 && !item.HasVariant(variant) {
		return Cart{}, fmt.Errorf("variant %q not offered for %s: %w", variant, item.Name, ErrInvalidInput)
	}
	product := Product{ID: item.ID, Name: item.Name, Price: item.Price, TaxRate: item.TaxRate}
	return s.update(ctx, id, func(c *Cart) error {
		return c.AddItem(product, variant, qty)
	})
}

// SetQuantity changes a line quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, id, serviceID uuid.UUID, variant string, qty int) (Cart, error) {
	return s.update(ctx, id, func(c *Cart) error {
		c.SetQuantity(serviceID, variant, qty)
		return nil
	})
}

// RemoveItem drops a line.
func (s *Service) RemoveItem(ctx context.Context, id, serviceID uuid.UUID, variant string) (Cart, error) {
	return s.update(ctx, id, func(c *Cart) error {
		c.RemoveItem(serviceID, variant)
		return nil
	})
}

// ApplyCoupon validates code against the cart subtotal and attaches it when valid.
// An invalid coupon returns the result together with ErrCouponRejected and
// leaves the stored cart untouched.
func (s *Service) ApplyCoupon(ctx context.Context, id uuid.UUID, code string) (Cart, coupon.Result, error) {
	if s == nil || s.Coupons == nil {
		return Cart{}, coupon.Result{}, errors.New("cart service not configured")
	}
	entries, err := s.Coupons.Lookup(ctx, code)
	if err != nil {
		return Cart{}, coupon.Result{}, err
	}
	var res coupon.Result
	c, err := s.update(ctx, id, func(c *Cart) error {
		res = c.ApplyCoupon(code, entries, s.now())
		if !res.Valid {
			return fmt.Errorf("%s: %w", res.Reason, ErrCouponRejected)
		}
		return nil
	})
	return c, res, err
}

// RemoveCoupon detaches the coupon. Usage counts are not affected.
func (s *Service) RemoveCoupon(ctx context.Context, id uuid.UUID) (Cart, error) {
	return s.update(ctx, id, func(c *Cart) error {
		c.RemoveCoupon()
		return nil
	})
}

// SetManualDiscount records a cashier discount.
func (s *Service) SetManualDiscount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (Cart, error) {
	return s.update(ctx, id, func(c *Cart) error {
		return c.SetManualDiscount(amount)
	})
}

// SetCustomer binds a customer, or clears the binding when customerID is nil.
func (s *Service) SetCustomer(ctx context.Context, id uuid.UUID, customerID *uuid.UUID) (Cart, error) {
	var ref *CustomerRef
	if customerID != nil {
		if s == nil || s.Customers == nil {
			return Cart{}, errors.New("cart service not configured")
		}
		cust, err := s.Customers.Get(ctx, *customerID)
		if err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return Cart{}, fmt.Errorf("customer %s: %w", *customerID, ErrInvalidInput)
			}
			return Cart{}, err
		}
		ref = &CustomerRef{ID: cust.ID, Name: cust.Name, Phone: cust.Phone, Email: cust.Email}
	}
	return s.update(ctx, id, func(c *Cart) error {
		c.SetCustomer(ref)
		return nil
	})
}

// SetPaymentMethod selects cash, card or upi.
func (s *Service) SetPaymentMethod(ctx context.Context, id uuid.UUID, method string) (Cart, error) {
	return s.update(ctx, id, func(c *Cart) error {
		return c.SetPaymentMethod(method)
	})
}

// SetSplit switches between intra-state (CGST+SGST) and inter-state (IGST) tax.
func (s *Service) SetSplit(ctx context.Context, id uuid.UUID, split bool) (Cart, error) {
	return s.update(ctx, id, func(c *Cart) error {
		c.Split = split
		return nil
	})
}

// update applies fn under WATCH so concurrent writers to one cart retry
// instead of overwriting each other.
func (s *Service) update(ctx context.Context, id uuid.UUID, fn func(*Cart) error) (Cart, error) {
	if s == nil || s.R == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	var out Cart
	txf := func(tx *redis.Tx) error {
		c, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = s.now()
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.save(ctx, pipe, c)
		})
		if err != nil {
			return err
		}
		out = c
		return nil
	}
	for attempt := 0; attempt < 3; attempt++ {
		err := s.R.Watch(ctx, txf, key(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return Cart{}, fmt.Errorf("cart %s: too many concurrent updates", id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type setter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

func (s *Service) load(ctx context.Context, r getter, id uuid.UUID) (Cart, error) {
	data, err := r.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, r setter, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.Set(ctx, key(c.ID), data, s.ttl()).Err()
}
