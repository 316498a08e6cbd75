package checkout_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/cart"
	"github.com/noah-isme/backend-salon/internal/checkout"
	"github.com/noah-isme/backend-salon/internal/coupon"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/lock"
	"github.com/noah-isme/backend-salon/internal/store"
)

var fixedNow = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

type fakeCarts struct {
	mu    sync.Mutex
	carts map[uuid.UUID]cart.Cart
}

func (f *fakeCarts) Get(_ context.Context, id uuid.UUID) (cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[id]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	return c, nil
}

func (f *fakeCarts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, id)
	return nil
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

type state struct {
	sales       []store.Sale
	items       []store.SaleItem
	activities  []store.CustomerActivity
	customers   map[uuid.UUID]store.Customer
	stock       map[uuid.UUID]store.InventoryItem
	couponsLeft map[uuid.UUID]int
}

func (s state) clone() state {
	out := state{
		sales:       append([]store.Sale(nil), s.sales...),
		items:       append([]store.SaleItem(nil), s.items...),
		activities:  append([]store.CustomerActivity(nil), s.activities...),
		customers:   map[uuid.UUID]store.Customer{},
		stock:       map[uuid.UUID]store.InventoryItem{},
		couponsLeft: map[uuid.UUID]int{},
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	for k, v := range s.couponsLeft {
		out.couponsLeft[k] = v
	}
	return out
}

type fakeStore struct {
	mu          sync.Mutex
	st          state
	consumables []store.ServiceConsumable
	loyaltyRate decimal.Decimal
	txCalls     int
	// onApplySale runs inside ApplySaleToCustomer, before the update.
	onApplySale func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		st: state{
			customers:   map[uuid.UUID]store.Customer{},
			stock:       map[uuid.UUID]store.InventoryItem{},
			couponsLeft: map[uuid.UUID]int{},
		},
		loyaltyRate: decimal.NewFromInt(1),
	}
}

// InTx gives fn the store and restores the previous state when fn fails or
// ctx is done before the commit point.
func (f *fakeStore) InTx(ctx context.Context, fn func(checkout.Querier) error) error {
	f.mu.Lock()
	f.txCalls++
	snapshot := f.st.clone()
	f.mu.Unlock()
	err := fn(f)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		f.mu.Lock()
		f.st = snapshot
		f.mu.Unlock()
	}
	return err
}

func (f *fakeStore) GetSettings(context.Context) (store.Settings, error) {
	return store.Settings{LoyaltyPointsRate: f.loyaltyRate}, nil
}

func (f *fakeStore) CreateSale(_ context.Context, arg store.CreateSaleParams) (store.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale := store.Sale{
		ID: uuid.New(), InvoiceNumber: arg.InvoiceNumber, BranchID: arg.BranchID, CustomerID: arg.CustomerID,
		StaffID: arg.StaffID, Subtotal: arg.Subtotal, TaxAmount: arg.TaxAmount, CGST: arg.CGST, SGST: arg.SGST,
		IGST: arg.IGST, CouponCode: arg.CouponCode, CouponDiscount: arg.CouponDiscount,
		ManualDiscount: arg.ManualDiscount, Discount: arg.Discount, Total: arg.Total,
		PaymentMethod: arg.PaymentMethod, Status: arg.Status, CreatedAt: arg.CreatedAt,
	}
	f.st.sales = append(f.st.sales, sale)
	return sale, nil
}

func (f *fakeStore) CreateSaleItem(_ context.Context, arg store.CreateSaleItemParams) (store.SaleItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := store.SaleItem{
		ID: uuid.New(), SaleID: arg.SaleID, ServiceID: arg.ServiceID, ServiceName: arg.ServiceName,
		Variant: arg.Variant, UnitPrice: arg.UnitPrice, TaxRate: arg.TaxRate, Quantity: arg.Quantity,
		LineTotal: arg.LineTotal, TaxAmount: arg.TaxAmount,
	}
	f.st.items = append(f.st.items, it)
	return it, nil
}

func (f *fakeStore) ConsumeCoupon(_ context.Context, id uuid.UUID, _ time.Time) (store.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.st.couponsLeft[id] <= 0 {
		return store.Coupon{}, pgx.ErrNoRows
	}
	f.st.couponsLeft[id]--
	return store.Coupon{ID: id}, nil
}

func (f *fakeStore) ListServiceConsumables(_ context.Context, ids []uuid.UUID) ([]store.ServiceConsumable, error) {
	var out []store.ServiceConsumable
	for _, c := range f.consumables {
		for _, id := range ids {
			if c.ServiceID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ConsumeStock(_ context.Context, id uuid.UUID, qty int32) (store.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.st.stock[id]
	if !ok || item.CurrentStock < qty {
		return store.InventoryItem{}, pgx.ErrNoRows
	}
	item.CurrentStock -= qty
	f.st.stock[id] = item
	return item, nil
}

func (f *fakeStore) ApplySaleToCustomer(_ context.Context, arg store.ApplySaleToCustomerParams) (store.Customer, error) {
	if f.onApplySale != nil {
		f.onApplySale()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.st.customers[arg.ID]
	if !ok {
		return store.Customer{}, pgx.ErrNoRows
	}
	c.TotalSpent = c.TotalSpent.Add(arg.Amount)
	c.Visits++
	c.LoyaltyPoints += arg.LoyaltyPoints
	visited := arg.VisitedAt
	c.LastVisit = &visited
	f.st.customers[arg.ID] = c
	return c, nil
}

func (f *fakeStore) InsertCustomerActivity(_ context.Context, arg store.InsertCustomerActivityParams) (store.CustomerActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := store.CustomerActivity{ID: uuid.New(), CustomerID: arg.CustomerID, Kind: arg.Kind,
		Description: arg.Description, Amount: arg.Amount, Reference: arg.Reference, CreatedAt: arg.CreatedAt}
	f.st.activities = append(f.st.activities, a)
	return a, nil
}

type sentNotice struct {
	topic  string
	notice events.Notice
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (r *recordingNotifier) EmitNotice(_ context.Context, topic string, id uuid.UUID, n events.Notice, _ any) (store.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotice{topic: topic, notice: n})
	return store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: id}, nil
}

type recordingReceipts struct {
	mu    sync.Mutex
	sales []uuid.UUID
}

func (r *recordingReceipts) EnqueueReceipt(_ context.Context, saleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, saleID)
	return nil
}

type sequenceInvoices struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceInvoices) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("INV-%d", s.n)
}

type fixture struct {
	svc      *checkout.Service
	carts    *fakeCarts
	db       *fakeStore
	notifier *recordingNotifier
	receipts *recordingReceipts
}

func newFixture(coupons ...coupon.Coupon) *fixture {
	f := &fixture{
		carts:    &fakeCarts{carts: map[uuid.UUID]cart.Cart{}},
		db:       newFakeStore(),
		notifier: &recordingNotifier{},
		receipts: &recordingReceipts{},
	}
	f.svc = &checkout.Service{
		Carts:    f.carts,
		Coupons:  fakeCoupons(coupons),
		Q:        f.db,
		Tx:       f.db,
		Invoices: &sequenceInvoices{},
		Events:   f.notifier,
		Receipts: f.receipts,
		Now:      func() time.Time { return fixedNow },
	}
	return f
}

func (f *fixture) cartWith(t *testing.T, price string, qty int) cart.Cart {
	t.Helper()
	c := cart.New(uuid.New(), fixedNow)
	require.NoError(t, c.AddItem(cart.Product{
		ID:      uuid.New(),
		Name:    "Hair Spa",
		Price:   decimal.RequireFromString(price),
		TaxRate: decimal.NewFromInt(18),
	}, "", qty))
	f.carts.carts[c.ID] = c
	return c
}

func TestFinalizeUpdatesCustomerAggregates(t *testing.T) {
	f := newFixture()
	c := f.cartWith(t, "120", 1)
	cust := store.Customer{ID: uuid.New(), Name: "Asha", TotalSpent: decimal.Zero}
	f.db.st.customers[cust.ID] = cust
	c.Customer = &cart.CustomerRef{ID: cust.ID, Name: cust.Name}
	f.carts.carts[c.ID] = c

	res, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	require.NoError(t, err)

	require.Equal(t, "INV-1", res.Sale.InvoiceNumber)
	require.Equal(t, store.SaleStatusCompleted, res.Sale.Status)
	require.True(t, res.Sale.Total.Equal(decimal.RequireFromString("141.60")), res.Sale.Total.String())
	require.True(t, res.Sale.CGST.Equal(decimal.RequireFromString("10.80")))
	require.Len(t, res.Items, 1)
	require.True(t, res.Items[0].TaxAmount.Equal(decimal.RequireFromString("21.60")))

	updated := f.db.st.customers[cust.ID]
	require.True(t, updated.TotalSpent.Equal(decimal.RequireFromString("141.60")))
	require.Equal(t, int32(1), updated.Visits)
	require.Equal(t, int64(141), updated.LoyaltyPoints)
	require.Equal(t, int64(141), res.LoyaltyPointsEarned)
	require.NotNil(t, updated.LastVisit)

	require.Len(t, f.db.st.activities, 1)
	require.Equal(t, "Purchase completed - INV-1", f.db.st.activities[0].Description)

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	require.Equal(t, events.TopicSaleCompleted, sent.topic)
	require.Equal(t, "Sale Completed", sent.notice.Title)
	require.Equal(t, "Sale INV-1 completed for ₹141.60", sent.notice.Message)
	require.Equal(t, events.PriorityLow, sent.notice.Priority)

	require.Equal(t, []uuid.UUID{res.Sale.ID}, f.receipts.sales)
	_, err = f.carts.Get(context.Background(), c.ID)
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestFinalizeEmptyCartPersistsNothing(t *testing.T) {
	f := newFixture()
	c := cart.New(uuid.New(), fixedNow)
	f.carts.carts[c.ID] = c

	_, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	require.Zero(t, f.db.txCalls)
	require.Empty(t, f.db.st.sales)
	require.Empty(t, f.notifier.sent)
	require.Empty(t, f.receipts.sales)
}

func TestFinalizeWalkInSkipsCustomer(t *testing.T) {
	f := newFixture()
	c := f.cartWith(t, "35", 1)

	res, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID, PaymentMethod: "upi"})
	require.NoError(t, err)
	require.Nil(t, res.Customer)
	require.Nil(t, res.Sale.CustomerID)
	require.Equal(t, "upi", res.Sale.PaymentMethod)
	require.True(t, res.Sale.Total.Equal(decimal.RequireFromString("41.30")))
	require.Empty(t, f.db.st.activities)
}

func TestFinalizeRejectsUnknownPaymentMethod(t *testing.T) {
	f := newFixture()
	c := f.cartWith(t, "35", 1)

	_, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID, PaymentMethod: "cheque"})
	require.ErrorIs(t, err, checkout.ErrInvalidInput)
	require.Empty(t, f.db.st.sales)
}

func activeCoupon(limit, used int) coupon.Coupon {
	return coupon.Coupon{
		ID: uuid.New(), Code: "SAVE20", Type: coupon.Percentage, Value: decimal.NewFromInt(20),
		MinAmount: decimal.NewFromInt(100), MaxDiscount: decimal.NewFromInt(50),
		UsageLimit: limit, UsedCount: used,
		StartDate: fixedNow.AddDate(0, -1, 0), EndDate: fixedNow.AddDate(0, 1, 0), IsActive: true,
	}
}

func TestFinalizeConsumesCoupon(t *testing.T) {
	cp := activeCoupon(5, 0)
	f := newFixture(cp)
	f.db.st.couponsLeft[cp.ID] = 5
	c := f.cartWith(t, "120", 1)
	res := c.ApplyCoupon("SAVE20", []coupon.Coupon{cp}, fixedNow)
	require.True(t, res.Valid)
	f.carts.carts[c.ID] = c

	out, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	require.NoError(t, err)
	require.Equal(t, 4, f.db.st.couponsLeft[cp.ID])
	require.NotNil(t, out.Sale.CouponCode)
	require.True(t, out.Sale.CouponDiscount.Equal(decimal.NewFromInt(24)))
	// 120 + 21.60 tax - 24 discount
	require.True(t, out.Sale.Total.Equal(decimal.RequireFromString("117.60")), out.Sale.Total.String())
}

func TestFinalizeCouponLostToConcurrentSale(t *testing.T) {
	cp := activeCoupon(1, 0)
	f := newFixture(cp)
	f.db.st.couponsLeft[cp.ID] = 0
	c := f.cartWith(t, "120", 1)
	require.True(t, c.ApplyCoupon("SAVE20", []coupon.Coupon{cp}, fixedNow).Valid)
	f.carts.carts[c.ID] = c

	_, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	require.ErrorIs(t, err, checkout.ErrCouponExhausted)
	require.ErrorIs(t, err, checkout.ErrContention)
	require.Empty(t, f.db.st.sales)
	require.Empty(t, f.notifier.sent)
	_, err = f.carts.Get(context.Background(), c.ID)
	require.NoError(t, err)
}

func TestFinalizeRevalidatesCoupon(t *testing.T) {
	applied := activeCoupon(1, 0)
	stored := applied
	stored.UsedCount = 1
	f := newFixture(stored)
	c := f.cartWith(t, "120", 1)
	require.True(t, c.ApplyCoupon("SAVE20", []coupon.Coupon{applied}, fixedNow).Valid)
	f.carts.carts[c.ID] = c

	_, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	var couponErr *checkout.CouponError
	require.ErrorAs(t, err, &couponErr)
	require.Equal(t, coupon.ReasonLimitExceeded, couponErr.Reason)
	require.ErrorIs(t, err, checkout.ErrCouponInvalid)
	require.Zero(t, f.db.txCalls)
}

func TestFinalizeConsumesStockAndFlagsLowStock(t *testing.T) {
	f := newFixture()
	c := f.cartWith(t, "500", 2)
	serviceID := c.Items[0].ServiceID
	oil := store.InventoryItem{ID: uuid.New(), Name: "Argan Oil", CurrentStock: 7, MinStock: 5}
	foil := store.InventoryItem{ID: uuid.New(), Name: "Foil", CurrentStock: 100, MinStock: 10}
	f.db.st.stock[oil.ID] = oil
	f.db.st.stock[foil.ID] = foil
	f.db.consumables = []store.ServiceConsumable{
		{ServiceID: serviceID, InventoryItemID: oil.ID, Quantity: 1},
		{ServiceID: serviceID, InventoryItemID: foil.ID, Quantity: 3},
	}

	_, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	require.NoError(t, err)
	require.Equal(t, int32(5), f.db.st.stock[oil.ID].CurrentStock)
	require.Equal(t, int32(94), f.db.st.stock[foil.ID].CurrentStock)

	require.Len(t, f.notifier.sent, 2)
	low := f.notifier.sent[1]
	require.Equal(t, events.TopicInventoryLowStock, low.topic)
	require.Equal(t, "Low Stock Alert", low.notice.Title)
	require.Equal(t, "Argan Oil is running low (5 units remaining)", low.notice.Message)
	require.Equal(t, events.PriorityHigh, low.notice.Priority)
}

func TestFinalizeInsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	c := f.cartWith(t, "500", 3)
	oil := store.InventoryItem{ID: uuid.New(), Name: "Argan Oil", CurrentStock: 2, MinStock: 1}
	f.db.st.stock[oil.ID] = oil
	f.db.consumables = []store.ServiceConsumable{{ServiceID: c.Items[0].ServiceID, InventoryItemID: oil.ID, Quantity: 1}}

	_, err := f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
	require.ErrorIs(t, err, checkout.ErrStockExhausted)
	require.Empty(t, f.db.st.sales)
	require.Empty(t, f.db.st.items)
	require.Equal(t, int32(2), f.db.st.stock[oil.ID].CurrentStock)
}

func TestFinalizeCancelledBeforeCommitLeavesNoTrace(t *testing.T) {
	cp := activeCoupon(5, 0)
	f := newFixture(cp)
	f.db.st.couponsLeft[cp.ID] = 5
	c := f.cartWith(t, "500", 1)
	require.True(t, c.ApplyCoupon("SAVE20", []coupon.Coupon{cp}, fixedNow).Valid)
	cust := store.Customer{ID: uuid.New(), Name: "Asha", TotalSpent: decimal.NewFromInt(300), Visits: 2, LoyaltyPoints: 40}
	f.db.st.customers[cust.ID] = cust
	c.Customer = &cart.CustomerRef{ID: cust.ID, Name: cust.Name}
	f.carts.carts[c.ID] = c
	oil := store.InventoryItem{ID: uuid.New(), Name: "Argan Oil", CurrentStock: 6, MinStock: 5}
	f.db.st.stock[oil.ID] = oil
	f.db.consumables = []store.ServiceConsumable{{ServiceID: c.Items[0].ServiceID, InventoryItemID: oil.ID, Quantity: 1}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.db.onApplySale = cancel

	_, err := f.svc.Finalize(ctx, checkout.Input{CartID: c.ID})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, f.db.txCalls)

	require.Empty(t, f.db.st.sales)
	require.Empty(t, f.db.st.items)
	require.Empty(t, f.db.st.activities)
	require.Equal(t, 5, f.db.st.couponsLeft[cp.ID])
	require.Equal(t, int32(6), f.db.st.stock[oil.ID].CurrentStock)
	require.Equal(t, cust, f.db.st.customers[cust.ID])
	require.Empty(t, f.notifier.sent)
	require.Empty(t, f.receipts.sales)

	_, err = f.carts.Get(context.Background(), c.ID)
	require.NoError(t, err)
}

func TestFinalizeDoubleSubmitCompletesOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture()
	f.svc.Locker = lock.Locker{R: client, RetryBackoff: 2 * time.Millisecond}
	c := f.cartWith(t, "120", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Finalize(context.Background(), checkout.Input{CartID: c.ID})
		}(i)
	}
	wg.Wait()

	var ok, missing int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, cart.ErrNotFound):
			missing++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, missing)
	require.Len(t, f.db.st.sales, 1)
}

func TestFinalizeHandler(t *testing.T) {
	f := newFixture()
	h := &checkout.Handler{Svc: f.svc}
	r := chi.NewRouter()
	r.Post("/carts/{id}/finalize", h.Finalize)

	c := f.cartWith(t, "35", 1)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/"+c.ID.String()+"/finalize",
		strings.NewReader(`{"paymentMethod":"card"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Data struct {
			Sale struct {
				InvoiceNumber string `json:"invoiceNumber"`
				Total         string `json:"total"`
				PaymentMethod string `json:"paymentMethod"`
			} `json:"sale"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INV-1", body.Data.Sale.InvoiceNumber)
	require.Equal(t, "41.3", body.Data.Sale.Total)
	require.Equal(t, "card", body.Data.Sale.PaymentMethod)

	empty := cart.New(uuid.New(), fixedNow)
	f.carts.carts[empty.ID] = empty
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/"+empty.ID.String()+"/finalize", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Cart is empty")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/"+uuid.NewString()+"/finalize", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFinalizeHandlerReportsContention(t *testing.T) {
	f := newFixture()
	h := &checkout.Handler{Svc: f.svc}
	r := chi.NewRouter()
	r.Post("/carts/{id}/finalize", h.Finalize)

	c := f.cartWith(t, "500", 1)
	oil := store.InventoryItem{ID: uuid.New(), Name: "Argan Oil", CurrentStock: 0}
	f.db.st.stock[oil.ID] = oil
	f.db.consumables = []store.ServiceConsumable{{ServiceID: c.Items[0].ServiceID, InventoryItemID: oil.ID, Quantity: 1}}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/"+c.ID.String()+"/finalize", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "CONTENTION", body.Error.Code)
	require.Equal(t, true, body.Error.Details["retryable"])
}
