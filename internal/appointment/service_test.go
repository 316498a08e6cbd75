package appointment_test

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
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/appointment"
	"github.com/noah-isme/backend-salon/internal/catalog"
	"github.com/noah-isme/backend-salon/internal/customer"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/store"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubQueries struct {
	appts    map[uuid.UUID]store.Appointment
	lastList store.ListAppointmentsParams
}

func (s *stubQueries) CreateAppointment(_ context.Context, arg store.CreateAppointmentParams) (store.Appointment, error) {
	a := store.Appointment{
		ID: uuid.New(), BranchID: arg.BranchID, CustomerID: arg.CustomerID, ServiceID: arg.ServiceID,
		StaffID: arg.StaffID, ScheduledAt: arg.ScheduledAt, DurationMinutes: arg.DurationMinutes,
		Status: store.AppointmentConfirmed, Notes: arg.Notes, CreatedAt: fixedNow,
	}
	s.appts[a.ID] = a
	return a, nil
}

func (s *stubQueries) GetAppointment(_ context.Context, id uuid.UUID) (store.Appointment, error) {
	a, ok := s.appts[id]
	if !ok {
		return store.Appointment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (s *stubQueries) ListAppointments(_ context.Context, arg store.ListAppointmentsParams) ([]store.Appointment, error) {
	s.lastList = arg
	var out []store.Appointment
	for _, a := range s.appts {
		out = append(out, a)
	}
	return out, nil
}

func (s *stubQueries) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, st store.AppointmentStatus) (store.Appointment, error) {
	a := s.appts[id]
	a.Status = st
	s.appts[id] = a
	return a, nil
}

func (s *stubQueries) CountUpcomingAppointments(context.Context, *uuid.UUID, time.Time) (int64, error) {
	var n int64
	for _, a := range s.appts {
		if a.Status == store.AppointmentConfirmed {
			n++
		}
	}
	return n, nil
}

type customers map[uuid.UUID]store.Customer

func (c customers) Get(_ context.Context, id uuid.UUID) (store.Customer, error) {
	v, ok := c[id]
	if !ok {
		return store.Customer{}, customer.ErrNotFound
	}
	return v, nil
}

type services map[uuid.UUID]catalog.Item

func (c services) Get(_ context.Context, id uuid.UUID) (catalog.Item, error) {
	v, ok := c[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return v, nil
}

type recordingNotifier struct {
	topics  []string
	notices []events.Notice
}

func (r *recordingNotifier) EmitNotice(_ context.Context, topic string, id uuid.UUID, n events.Notice, _ any) (store.DomainEvent, error) {
	r.topics = append(r.topics, topic)
	r.notices = append(r.notices, n)
	return store.DomainEvent{ID: uuid.New(), AggregateID: id}, nil
}

type fixture struct {
	svc      *appointment.Service
	q        *stubQueries
	n        *recordingNotifier
	customer store.Customer
	service  catalog.Item
}

func newFixture() *fixture {
	f := &fixture{
		q:        &stubQueries{appts: map[uuid.UUID]store.Appointment{}},
		n:        &recordingNotifier{},
		customer: store.Customer{ID: uuid.New(), Name: "Priya"},
		service:  catalog.Item{Service: store.Service{ID: uuid.New(), Name: "Keratin", DurationMinutes: 90, IsActive: true}},
	}
	f.svc = &appointment.Service{
		Q:         f.q,
		Customers: customers{f.customer.ID: f.customer},
		Catalog:   services{f.service.ID: f.service},
		Events:    f.n,
		Now:       func() time.Time { return fixedNow },
	}
	return f
}

func TestBookUsesServiceDurationAndNotifies(t *testing.T) {
	f := newFixture()
	at := fixedNow.Add(26 * time.Hour)
	appt, err := f.svc.Book(context.Background(), appointment.BookInput{
		CustomerID: f.customer.ID, ServiceID: f.service.ID, ScheduledAt: at, Notes: "  first visit ",
	})
	require.NoError(t, err)
	require.Equal(t, store.AppointmentConfirmed, appt.Status)
	require.Equal(t, int32(90), appt.DurationMinutes)
	require.Equal(t, "first visit", appt.Notes)

	require.Equal(t, []string{events.TopicAppointmentBooked}, f.n.topics)
	require.Equal(t, "New Appointment Booked", f.n.notices[0].Title)
	require.Equal(t, "Priya booked Keratin for 2025-03-11", f.n.notices[0].Message)
	require.Equal(t, events.PriorityMedium, f.n.notices[0].Priority)
}

func TestBookRejectsBadInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	future := fixedNow.Add(time.Hour)

	_, err := f.svc.Book(ctx, appointment.BookInput{CustomerID: f.customer.ID, ServiceID: f.service.ID, ScheduledAt: fixedNow.Add(-time.Hour)})
	require.ErrorIs(t, err, appointment.ErrInvalidInput)

	_, err = f.svc.Book(ctx, appointment.BookInput{CustomerID: uuid.New(), ServiceID: f.service.ID, ScheduledAt: future})
	require.ErrorIs(t, err, appointment.ErrInvalidInput)

	_, err = f.svc.Book(ctx, appointment.BookInput{CustomerID: f.customer.ID, ServiceID: uuid.New(), ScheduledAt: future})
	require.ErrorIs(t, err, appointment.ErrInvalidInput)
	require.Empty(t, f.q.appts)
}

func TestUpdateStatusClosesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, appointment.BookInput{CustomerID: f.customer.ID, ServiceID: f.service.ID, ScheduledAt: fixedNow.Add(time.Hour)})
	require.NoError(t, err)

	n, err := f.svc.Upcoming(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	done, err := f.svc.UpdateStatus(ctx, appt.ID, "Completed")
	require.NoError(t, err)
	require.Equal(t, store.AppointmentCompleted, done.Status)
	require.Equal(t, events.TopicAppointmentUpdated, f.n.topics[1])

	_, err = f.svc.UpdateStatus(ctx, appt.ID, "Cancelled")
	require.ErrorIs(t, err, appointment.ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, appt.ID, "Rescheduled")
	require.ErrorIs(t, err, appointment.ErrInvalidInput)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), "Completed")
	require.ErrorIs(t, err, appointment.ErrNotFound)
}

func TestListDefaultsToTheComingWeek(t *testing.T) {
	f := newFixture()
	_, err := f.svc.List(context.Background(), appointment.ListParams{})
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), f.q.lastList.From)
	require.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), f.q.lastList.To)

	_, err = f.svc.List(context.Background(), appointment.ListParams{Status: "Maybe"})
	require.ErrorIs(t, err, appointment.ErrInvalidInput)
}

func TestAppointmentHandlers(t *testing.T) {
	f := newFixture()
	h := &appointment.Handler{Svc: f.svc}
	r := chi.NewRouter()
	r.Post("/appointments", h.Book)
	r.Patch("/appointments/{id}/status", h.UpdateStatus)
	r.Get("/appointments/upcoming", h.Upcoming)

	body := `{"customerId":"` + f.customer.ID.String() + `","serviceId":"` + f.service.ID.String() + `","scheduledAt":"2025-03-12T10:00:00Z"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/upcoming", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"count":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/appointments/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"Done"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
