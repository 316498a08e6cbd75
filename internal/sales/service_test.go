package sales_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/sales"
	"github.com/noah-isme/backend-salon/internal/store"
	"github.com/noah-isme/backend-salon/internal/tasks"
)

var fixedNow = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

type stubQueries struct {
	sales     map[uuid.UUID]store.Sale
	items     map[uuid.UUID][]store.SaleItem
	lastList  store.ListSalesParams
	listCalls int
}

func newStub() *stubQueries {
	return &stubQueries{sales: map[uuid.UUID]store.Sale{}, items: map[uuid.UUID][]store.SaleItem{}}
}

func (s *stubQueries) add(status store.SaleStatus) store.Sale {
	code := "SAVE20"
	sale := store.Sale{
		ID: uuid.New(), InvoiceNumber: "INV-" + uuid.NewString()[:8], Subtotal: decimal.NewFromInt(120),
		TaxAmount: decimal.RequireFromString("21.6"), CGST: decimal.RequireFromString("10.8"),
		SGST: decimal.RequireFromString("10.8"), CouponCode: &code, CouponDiscount: decimal.NewFromInt(24),
		Discount: decimal.NewFromInt(24), Total: decimal.RequireFromString("117.6"), PaymentMethod: "cash",
		Status: status, CreatedAt: fixedNow,
	}
	s.sales[sale.ID] = sale
	s.items[sale.ID] = []store.SaleItem{{
		ID: uuid.New(), SaleID: sale.ID, ServiceID: uuid.New(), ServiceName: "Hair Spa", Variant: "Regular",
		UnitPrice: decimal.NewFromInt(120), TaxRate: decimal.NewFromInt(18), Quantity: 1,
		LineTotal: decimal.NewFromInt(120), TaxAmount: decimal.RequireFromString("21.6"),
	}}
	return sale
}

func (s *stubQueries) GetSale(_ context.Context, id uuid.UUID) (store.Sale, error) {
	sale, ok := s.sales[id]
	if !ok {
		return store.Sale{}, pgx.ErrNoRows
	}
	return sale, nil
}

func (s *stubQueries) ListSaleItems(_ context.Context, id uuid.UUID) ([]store.SaleItem, error) {
	return s.items[id], nil
}

func (s *stubQueries) ListSales(_ context.Context, arg store.ListSalesParams) ([]store.Sale, error) {
	s.listCalls++
	s.lastList = arg
	var out []store.Sale
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	return out, nil
}

func (s *stubQueries) CountSales(context.Context, store.CountSalesParams) (int64, error) {
	return int64(len(s.sales)), nil
}

func (s *stubQueries) CancelSale(_ context.Context, arg store.CancelSaleParams) (store.Sale, error) {
	sale, ok := s.sales[arg.ID]
	if !ok || sale.Status != store.SaleStatusCompleted {
		return store.Sale{}, pgx.ErrNoRows
	}
	sale.Status = store.SaleStatusCancelled
	sale.CancelReason = &arg.Reason
	at := arg.CancelledAt
	sale.CancelledAt = &at
	s.sales[arg.ID] = sale
	return sale, nil
}

func (s *stubQueries) GetSettings(context.Context) (store.Settings, error) {
	gstin := "27AAPFU0939F1ZV"
	return store.Settings{BusinessName: "Femina Flaunt", GSTIN: &gstin}, nil
}

type recordingNotifier struct {
	topics  []string
	notices []events.Notice
}

func (r *recordingNotifier) EmitNotice(_ context.Context, topic string, id uuid.UUID, n events.Notice, _ any) (store.DomainEvent, error) {
	r.topics = append(r.topics, topic)
	r.notices = append(r.notices, n)
	return store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: id}, nil
}

func newService(q *stubQueries, n *recordingNotifier) *sales.Service {
	svc := &sales.Service{Q: q, Now: func() time.Time { return fixedNow }}
	if n != nil {
		svc.Events = n
	}
	return svc
}

func TestCancelKeepsMoneyAndEmits(t *testing.T) {
	q := newStub()
	n := &recordingNotifier{}
	svc := newService(q, n)
	sale := q.add(store.SaleStatusCompleted)

	out, err := svc.Cancel(context.Background(), sale.ID, "customer changed mind")
	require.NoError(t, err)
	require.Equal(t, store.SaleStatusCancelled, out.Status)
	require.True(t, out.Total.Equal(sale.Total))
	require.Equal(t, []string{events.TopicSaleCancelled}, n.topics)
	require.Equal(t, "Sale Cancelled", n.notices[0].Title)

	_, err = svc.Cancel(context.Background(), sale.ID, "again")
	require.ErrorIs(t, err, sales.ErrNotCancellable)

	_, err = svc.Cancel(context.Background(), uuid.New(), "missing")
	require.ErrorIs(t, err, sales.ErrNotFound)

	_, err = svc.Cancel(context.Background(), sale.ID, "  ")
	require.ErrorIs(t, err, sales.ErrInvalidInput)
}

func TestListDefaultsToLastThirtyDays(t *testing.T) {
	q := newStub()
	q.add(store.SaleStatusCompleted)
	svc := newService(q, nil)

	res, err := svc.List(context.Background(), sales.ListParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Equal(t, int64(1), res.Total)
	require.Equal(t, fixedNow, q.lastList.To)
	require.Equal(t, fixedNow.AddDate(0, 0, -30), q.lastList.From)
	require.Equal(t, int32(20), q.lastList.Limit)

	_, err = svc.List(context.Background(), sales.ListParams{From: fixedNow, To: fixedNow.Add(-time.Hour)})
	require.ErrorIs(t, err, sales.ErrInvalidInput)
}

func TestReceiptRendersPDF(t *testing.T) {
	q := newStub()
	sale := q.add(store.SaleStatusCompleted)
	svc := newService(q, nil)

	d, pdf, err := svc.Receipt(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Equal(t, sale.InvoiceNumber, d.InvoiceNumber)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

type memArchive struct {
	keys []string
}

func (m *memArchive) Put(_ context.Context, key string, body []byte) (string, error) {
	m.keys = append(m.keys, key)
	return "mem://" + key, nil
}

func TestReceiptWorkerArchives(t *testing.T) {
	q := newStub()
	sale := q.add(store.SaleStatusCompleted)
	archive := &memArchive{}
	w := sales.ReceiptWorker{Svc: newService(q, nil), Archive: archive}

	task, err := tasks.NewReceiptTask(sale.ID)
	require.NoError(t, err)
	require.NoError(t, w.ProcessTask(context.Background(), task))
	require.Equal(t, []string{sale.InvoiceNumber + ".pdf"}, archive.keys)

	missing, err := tasks.NewReceiptTask(uuid.New())
	require.NoError(t, err)
	err = w.ProcessTask(context.Background(), missing)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, sales.ErrNotFound)
}

func TestSalesHandlers(t *testing.T) {
	q := newStub()
	sale := q.add(store.SaleStatusCompleted)
	h := &sales.Handler{Svc: newService(q, &recordingNotifier{})}
	r := chi.NewRouter()
	r.Get("/sales", h.List)
	r.Get("/sales/{id}", h.Get)
	r.Post("/sales/{id}/cancel", h.Cancel)
	r.Get("/sales/{id}/receipt", h.Receipt)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales?from=2025-03-01&to=2025-03-10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), q.lastList.To)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales?from=yesterday", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/"+sale.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"items"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sales/"+sale.ID.String()+"/receipt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/"+sale.ID.String()+"/cancel", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/"+sale.ID.String()+"/cancel", strings.NewReader(`{"reason":"duplicate"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sales/"+sale.ID.String()+"/cancel", strings.NewReader(`{"reason":"duplicate"}`)))
	require.Equal(t, http.StatusConflict, rec.Code)
}
