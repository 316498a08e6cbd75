package expense_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/branch"
	"github.com/noah-isme/backend-salon/internal/expense"
	"github.com/noah-isme/backend-salon/internal/store"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubQueries struct {
	rows     map[uuid.UUID]store.Expense
	lastList store.ListExpensesParams
}

func newStub() *stubQueries { return &stubQueries{rows: map[uuid.UUID]store.Expense{}} }

func fromParams(id uuid.UUID, arg store.UpsertExpenseParams) store.Expense {
	return store.Expense{
		ID: id, BranchID: arg.BranchID, Category: arg.Category, Description: arg.Description,
		Amount: arg.Amount, SpentOn: arg.SpentOn, PaymentMethod: arg.PaymentMethod, Vendor: arg.Vendor,
		Status: arg.Status, RecurringPeriod: arg.RecurringPeriod, CreatedBy: arg.CreatedBy,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
}

func (s *stubQueries) CreateExpense(_ context.Context, arg store.UpsertExpenseParams) (store.Expense, error) {
	e := fromParams(uuid.New(), arg)
	s.rows[e.ID] = e
	return e, nil
}

func (s *stubQueries) UpdateExpense(_ context.Context, arg store.UpsertExpenseParams) (store.Expense, error) {
	cur, ok := s.rows[arg.ID]
	if !ok {
		return store.Expense{}, pgx.ErrNoRows
	}
	e := fromParams(arg.ID, arg)
	e.BranchID, e.CreatedBy = cur.BranchID, cur.CreatedBy
	s.rows[e.ID] = e
	return e, nil
}

func (s *stubQueries) GetExpense(_ context.Context, id uuid.UUID) (store.Expense, error) {
	e, ok := s.rows[id]
	if !ok {
		return store.Expense{}, pgx.ErrNoRows
	}
	return e, nil
}

func (s *stubQueries) ListExpenses(_ context.Context, arg store.ListExpensesParams) ([]store.Expense, error) {
	s.lastList = arg
	var out []store.Expense
	for _, e := range s.rows {
		if arg.BranchID != nil && (e.BranchID == nil || *e.BranchID != *arg.BranchID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *stubQueries) DeleteExpense(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

type reportCache struct{ drops int }

func (c *reportCache) Invalidate(context.Context) error {
	c.drops++
	return nil
}

func newService(q *stubQueries) *expense.Service {
	return &expense.Service{Q: q, Reports: &reportCache{}, Now: func() time.Time { return fixedNow }}
}

func validInput(branchID uuid.UUID) expense.Input {
	return expense.Input{
		BranchID:    &branchID,
		Category:    "Rent",
		Description: "March rent",
		Amount:      decimal.RequireFromString("25000.005"),
		Date:        time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC),
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	q := newStub()
	svc := newService(q)
	in := validInput(uuid.New())
	in.PaymentMethod = "Bank Transfer"
	in.RecurringPeriod = "Monthly"

	e, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "bank_transfer", e.PaymentMethod)
	require.Equal(t, store.ExpensePending, e.Status)
	require.Equal(t, "25000.01", e.Amount.StringFixed(2))
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), e.SpentOn)
	require.NotNil(t, e.RecurringPeriod)
	require.Equal(t, "Monthly", *e.RecurringPeriod)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := newService(newStub())
	cases := map[string]func(*expense.Input){
		"no category":    func(in *expense.Input) { in.Category = " " },
		"no description": func(in *expense.Input) { in.Description = "" },
		"zero amount":    func(in *expense.Input) { in.Amount = decimal.Zero },
		"negative":       func(in *expense.Input) { in.Amount = decimal.NewFromInt(-5) },
		"no date":        func(in *expense.Input) { in.Date = time.Time{} },
		"bad method":     func(in *expense.Input) { in.PaymentMethod = "barter" },
		"bad status":     func(in *expense.Input) { in.Status = "Lost" },
		"bad period":     func(in *expense.Input) { in.RecurringPeriod = "Daily" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(uuid.New())
			mutate(&in)
			_, err := svc.Create(context.Background(), in)
			require.ErrorIs(t, err, expense.ErrInvalidInput)
		})
	}
}

func TestOtherBranchCannotTouchExpense(t *testing.T) {
	q := newStub()
	svc := newService(q)
	owner, other := uuid.New(), uuid.New()
	e, err := svc.Create(context.Background(), validInput(owner))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), &other, e.ID)
	require.ErrorIs(t, err, expense.ErrNotFound)

	in := validInput(other)
	in.Description = "hijack"
	_, err = svc.Update(context.Background(), e.ID, in)
	require.ErrorIs(t, err, expense.ErrNotFound)

	require.ErrorIs(t, svc.Delete(context.Background(), &other, e.ID), expense.ErrNotFound)
	require.Contains(t, q.rows, e.ID)
	require.Equal(t, "March rent", q.rows[e.ID].Description)

	in = validInput(owner)
	in.Status = "Paid"
	updated, err := svc.Update(context.Background(), e.ID, in)
	require.NoError(t, err)
	require.Equal(t, store.ExpensePaid, updated.Status)

	require.NoError(t, svc.Delete(context.Background(), &owner, e.ID))
	require.Empty(t, q.rows)
	require.Equal(t, 3, svc.Reports.(*reportCache).drops)
	require.ErrorIs(t, svc.Delete(context.Background(), &owner, e.ID), expense.ErrNotFound)
}

func TestListDefaultsToCurrentMonthAndSums(t *testing.T) {
	q := newStub()
	svc := newService(q)
	b := uuid.New()
	for _, amt := range []string{"100.50", "49.50"} {
		in := validInput(b)
		in.Amount = decimal.RequireFromString(amt)
		_, err := svc.Create(context.Background(), in)
		require.NoError(t, err)
	}

	res, err := svc.List(context.Background(), expense.ListParams{BranchID: &b})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	require.Equal(t, "150.00", res.Total.StringFixed(2))
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), q.lastList.From)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), q.lastList.To)

	_, err = svc.List(context.Background(), expense.ListParams{From: fixedNow, To: fixedNow})
	require.ErrorIs(t, err, expense.ErrInvalidInput)
}

func TestExpenseHandlers(t *testing.T) {
	q := newStub()
	h := &expense.Handler{Svc: newService(q)}
	b := uuid.New()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(branch.With(req.Context(), b)))
		})
	})
	r.Get("/expenses", h.List)
	r.Post("/expenses", h.Create)
	r.Get("/expenses/{id}", h.Get)
	r.Delete("/expenses/{id}", h.Delete)

	body := `{"category":"Supplies","description":"Towels","amount":"1200","date":"2025-03-04","paymentMethod":"UPI","status":"Paid"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, q.rows, 1)
	var id uuid.UUID
	for k, e := range q.rows {
		id = k
		require.Equal(t, "upi", e.PaymentMethod)
		require.Equal(t, b, *e.BranchID)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"category":"Supplies","description":"x","amount":"5","date":"04/03/2025"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(`{"category":"Supplies","description":"x","amount":"0","date":"2025-03-04"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses?from=2025-03-01&to=2025-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":"1200"`)
	require.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), q.lastList.To)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses?from=March", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/expenses/"+id.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, q.rows)
}
