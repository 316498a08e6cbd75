package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/cart"
	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/coupon"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/store"
)

type fakeCatalog map[uuid.UUID]catalog.Item

func (f fakeCatalog) Get(_ context.Context, id uuid.UUID) (catalog.Item, error) {
	it, ok := f[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return it, nil
}

type fakeCoupons []coupon.Coupon

func (f fakeCoupons) Lookup(_ context.Context, code string) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	for _, c := range f {
		if c.Code == code {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeCustomers map[uuid.UUID]store.Customer

func (f fakeCustomers) Get(_ context.Context, id uuid.UUID) (store.Customer, error) {
	c, ok := f[id]
	if !ok {
		return store.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

type fixture struct {
	svc      *cart.Service
	mr       *miniredis.Miniredis
	haircut  catalog.Item
	inactive catalog.Item
	customer store.Customer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	haircut := catalog.Item{Service: store.Service{ID: uuid.New(), Name: "Haircut", Price: dec("35"), TaxRate: dec("18"),
		Variants: []string{"Regular", "Long"}, IsActive: true}}
	inactive := catalog.Item{Service: store.Service{ID: uuid.New(), Name: "Old", Price: dec("10"), TaxRate: dec("18"), IsActive: false}}
	cust := store.Customer{ID: uuid.New(), Name: "Asha", Phone: "98765"}
	flat := coupon.Coupon{ID: uuid.New(), Code: "FLAT30", Type: coupon.Flat, Value: dec("30"), MaxDiscount: dec("20"),
		UsageLimit: 5, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), IsActive: true}

	svc := &cart.Service{
		R:         client,
		TTL:       time.Hour,
		Catalog:   fakeCatalog{haircut.ID: haircut, inactive.ID: inactive},
		Coupons:   fakeCoupons{flat},
		Customers: fakeCustomers{cust.ID: cust},
		Now:       func() time.Time { return now },
	}
	return fixture{svc: svc, mr: mr, haircut: haircut, inactive: inactive, customer: cust}
}

func TestServiceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, nil, nil)
	require.NoError(t, err)
	require.True(t, f.mr.Exists("cart:"+c.ID.String()))
	require.Equal(t, time.Hour, f.mr.TTL("cart:"+c.ID.String()))

	c, err = f.svc.AddItem(ctx, c.ID, f.haircut.ID, "Long", 2)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)

	_, err = f.svc.AddItem(ctx, c.ID, f.haircut.ID, "Curly", 1)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
	_, err = f.svc.AddItem(ctx, c.ID, f.inactive.ID, "", 1)
	require.ErrorIs(t, err, cart.ErrInvalidInput)
	_, err = f.svc.AddItem(ctx, c.ID, uuid.New(), "", 1)
	require.ErrorIs(t, err, cart.ErrInvalidInput)

	c, err = f.svc.SetCustomer(ctx, c.ID, &f.customer.ID)
	require.NoError(t, err)
	require.Equal(t, "Asha", c.Customer.Name)

	c, res, err := f.svc.ApplyCoupon(ctx, c.ID, "FLAT30")
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "20", c.Totals(now).CouponDiscount.String())

	_, res, err = f.svc.ApplyCoupon(ctx, c.ID, "NOPE")
	require.ErrorIs(t, err, cart.ErrCouponRejected)
	require.Equal(t, coupon.ReasonInvalidCode, res.Reason)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "FLAT30", stored.Coupon.Code)

	require.NoError(t, f.svc.Delete(ctx, c.ID))
	_, err = f.svc.Get(ctx, c.ID)
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestServiceExpiredCartIsNotFound(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)
	f.mr.FastForward(2 * time.Hour)
	_, err = f.svc.AddItem(context.Background(), c.ID, f.haircut.ID, "", 1)
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestHandlersRoundTrip(t *testing.T) {
	f := newFixture(t)
	h := &cart.Handler{Svc: f.svc}
	r := chi.NewRouter()
	r.Post("/carts", h.Create)
	r.Get("/carts/{id}/totals", h.Totals)
	r.Post("/carts/{id}/items", h.AddItem)
	r.Post("/carts/{id}/coupon", h.ApplyCoupon)
	r.Put("/carts/{id}/discount", h.SetDiscount)
	r.Put("/carts/{id}/payment-method", h.SetPaymentMethod)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data cart.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/carts/" + created.Data.ID.String()

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/items",
		strings.NewReader(`{"serviceId":"`+f.haircut.ID.String()+`","quantity":1}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/coupon", strings.NewReader(`{"code":"NOPE"}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), coupon.ReasonInvalidCode)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, base+"/discount", strings.NewReader(`{"amount":"-5"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, base+"/payment-method", strings.NewReader(`{"paymentMethod":"cheque"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/totals", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var totals struct {
		Data struct {
			Subtotal   string `json:"subtotal"`
			TaxAmount  string `json:"taxAmount"`
			GrandTotal string `json:"grandTotal"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	require.Equal(t, "35", totals.Data.Subtotal)
	require.Equal(t, "6.3", totals.Data.TaxAmount)
	require.Equal(t, "41.3", totals.Data.GrandTotal)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/carts/"+uuid.NewString()+"/totals", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
