package customer_test

import (
	"context"
	"encoding/json"
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

	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/store"
)

type stubQueries struct {
	customers  map[uuid.UUID]store.Customer
	activities []store.InsertCustomerActivityParams
}

func newStub() *stubQueries {
	return &stubQueries{customers: map[uuid.UUID]store.Customer{}}
}

func (s *stubQueries) CreateCustomer(_ context.Context, arg store.CreateCustomerParams) (store.Customer, error) {
	c := store.Customer{ID: uuid.New(), BranchID: arg.BranchID, Name: arg.Name, Phone: arg.Phone, Email: arg.Email,
		GSTIN: arg.GSTIN, TotalSpent: decimal.Zero, MembershipTier: "Bronze"}
	s.customers[c.ID] = c
	return c, nil
}

func (s *stubQueries) GetCustomer(_ context.Context, id uuid.UUID) (store.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return store.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *stubQueries) UpdateCustomerProfile(_ context.Context, arg store.UpdateCustomerProfileParams) (store.Customer, error) {
	c, ok := s.customers[arg.ID]
	if !ok {
		return store.Customer{}, pgx.ErrNoRows
	}
	c.Name, c.Phone, c.Email, c.GSTIN = arg.Name, arg.Phone, arg.Email, arg.GSTIN
	s.customers[arg.ID] = c
	return c, nil
}

func (s *stubQueries) SearchCustomers(_ context.Context, arg store.SearchCustomersParams) ([]store.Customer, error) {
	var out []store.Customer
	for _, c := range s.customers {
		if arg.Query == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(arg.Query)) || strings.Contains(c.Phone, arg.Query) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubQueries) CountCustomers(ctx context.Context, branchID *uuid.UUID, query string) (int64, error) {
	items, _ := s.SearchCustomers(ctx, store.SearchCustomersParams{BranchID: branchID, Query: query})
	return int64(len(items)), nil
}

func (s *stubQueries) InsertCustomerActivity(_ context.Context, arg store.InsertCustomerActivityParams) (store.CustomerActivity, error) {
	s.activities = append(s.activities, arg)
	return store.CustomerActivity{ID: uuid.New(), CustomerID: arg.CustomerID, Kind: arg.Kind, Description: arg.Description, CreatedAt: arg.CreatedAt}, nil
}

func (s *stubQueries) SoftDeleteCustomer(_ context.Context, id uuid.UUID) (store.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return store.Customer{}, pgx.ErrNoRows
	}
	delete(s.customers, id)
	return c, nil
}

func (s *stubQueries) ListCustomerActivities(_ context.Context, id uuid.UUID, _ int32) ([]store.CustomerActivity, error) {
	var out []store.CustomerActivity
	for _, a := range s.activities {
		if a.CustomerID == id {
			out = append(out, store.CustomerActivity{CustomerID: a.CustomerID, Kind: a.Kind, Description: a.Description})
		}
	}
	return out, nil
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

func TestCreateLogsRegistrationAndNotifies(t *testing.T) {
	q := newStub()
	n := &recordingNotifier{}
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &customer.Service{Q: q, Events: n, Now: func() time.Time { return now }}

	c, err := svc.Create(context.Background(), customer.Profile{Name: " Asha ", Phone: "98765", Email: "ASHA@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Asha", c.Name)
	require.Equal(t, "asha@example.com", c.Email)
	require.Equal(t, "Bronze", c.MembershipTier)

	require.Len(t, q.activities, 1)
	require.Equal(t, "Customer registered", q.activities[0].Description)
	require.Equal(t, now, q.activities[0].CreatedAt)

	require.Equal(t, []string{events.TopicCustomerCreated}, n.topics)
	require.Equal(t, "New Customer Added", n.notices[0].Title)
	require.Equal(t, "Asha has been added to the system", n.notices[0].Message)
}

func TestCreateValidatesProfile(t *testing.T) {
	svc := &customer.Service{Q: newStub()}
	_, err := svc.Create(context.Background(), customer.Profile{Name: "No Phone"})
	require.ErrorIs(t, err, customer.ErrInvalidInput)

	_, err = svc.Create(context.Background(), customer.Profile{Name: "Biz", Phone: "1", GSTIN: "not-a-gstin"})
	require.ErrorIs(t, err, customer.ErrInvalidInput)

	c, err := svc.Create(context.Background(), customer.Profile{Name: "Biz", Phone: "1", GSTIN: "27aapfu0939f1zv"})
	require.NoError(t, err)
	require.NotNil(t, c.GSTIN)
	require.Equal(t, "27AAPFU0939F1ZV", *c.GSTIN)
}

func TestGetAndUpdateNotFound(t *testing.T) {
	svc := &customer.Service{Q: newStub()}
	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, customer.ErrNotFound)
	_, err = svc.Update(context.Background(), uuid.New(), customer.Profile{Name: "A", Phone: "1"})
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestListHandlerPaginates(t *testing.T) {
	q := newStub()
	svc := &customer.Service{Q: q}
	for _, name := range []string{"Asha", "Ravi", "Meena"} {
		_, err := svc.Create(context.Background(), customer.Profile{Name: name, Phone: "555"})
		require.NoError(t, err)
	}
	h := &customer.Handler{Svc: svc}
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers?q=ravi", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []store.Customer `json:"data"`
		Pagination struct {
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, 1, resp.Pagination.TotalItems)
}

func TestCreateHandlerRejectsBadEmail(t *testing.T) {
	h := &customer.Handler{Svc: &customer.Service{Q: newStub()}}
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(`{"name":"A","phone":"1","email":"nope"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteHidesCustomer(t *testing.T) {
	q := newStub()
	svc := &customer.Service{Q: q}
	c, err := svc.Create(context.Background(), customer.Profile{Name: "Asha", Phone: "555"})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Delete("/customers/{id}", (&customer.Handler{Svc: svc}).Delete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/"+c.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = svc.Get(context.Background(), c.ID)
	require.ErrorIs(t, err, customer.ErrNotFound)
	res, err := svc.Search(context.Background(), nil, "asha", 10, 0)
	require.NoError(t, err)
	require.Zero(t, res.Total)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/"+c.ID.String(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
