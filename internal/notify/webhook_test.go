package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/notify"
	"github.com/noah-isme/backend-salon/internal/resilience"
	"github.com/noah-isme/backend-salon/internal/store"
	"github.com/noah-isme/backend-salon/internal/tasks"
)

type deliveryStore struct {
	endpoints map[uuid.UUID]store.WebhookEndpoint
	events    map[uuid.UUID]store.DomainEvent
}

func newDeliveryStore() *deliveryStore {
	return &deliveryStore{endpoints: map[uuid.UUID]store.WebhookEndpoint{}, events: map[uuid.UUID]store.DomainEvent{}}
}

func (s *deliveryStore) ListActiveEndpointsForTopic(_ context.Context, topic string) ([]store.WebhookEndpoint, error) {
	var out []store.WebhookEndpoint
	for _, ep := range s.endpoints {
		if !ep.Active {
			continue
		}
		if len(ep.Topics) == 0 {
			out = append(out, ep)
			continue
		}
		for _, t := range ep.Topics {
			if t == topic {
				out = append(out, ep)
			}
		}
	}
	return out, nil
}

func (s *deliveryStore) GetWebhookEndpoint(_ context.Context, id uuid.UUID) (store.WebhookEndpoint, error) {
	ep, ok := s.endpoints[id]
	if !ok {
		return store.WebhookEndpoint{}, pgx.ErrNoRows
	}
	return ep, nil
}

func (s *deliveryStore) GetDomainEvent(_ context.Context, id uuid.UUID) (store.DomainEvent, error) {
	ev, ok := s.events[id]
	if !ok {
		return store.DomainEvent{}, pgx.ErrNoRows
	}
	return ev, nil
}

func (s *deliveryStore) addEndpoint(url string, topics ...string) store.WebhookEndpoint {
	ep := store.WebhookEndpoint{ID: uuid.New(), URL: url, Secret: "s3cret-s3cret-s3cret", Topics: topics, Active: true}
	s.endpoints[ep.ID] = ep
	return ep
}

func (s *deliveryStore) addEvent(topic string) store.DomainEvent {
	ev := store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: uuid.New(), Payload: []byte(`{"data":{"id":1}}`), OccurredAt: time.Now()}
	s.events[ev.ID] = ev
	return ev
}

type recordingQueue struct {
	pairs [][2]uuid.UUID
	err   error
}

func (q *recordingQueue) EnqueueWebhook(_ context.Context, endpointID, eventID uuid.UUID) error {
	q.pairs = append(q.pairs, [2]uuid.UUID{endpointID, eventID})
	return q.err
}

func TestDeliverSignsRequest(t *testing.T) {
	type recorded struct {
		header http.Header
		body   []byte
	}
	received := make(chan recorded, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- recorded{r.Header.Clone(), body}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	st := newDeliveryStore()
	ep := st.addEndpoint(srv.URL)
	ev := st.addEvent("sale.completed")
	d := &notify.Dispatcher{Q: st, HTTP: srv.Client()}

	require.NoError(t, d.Deliver(context.Background(), ep.ID, ev.ID))

	rec := <-received
	require.Equal(t, "application/json", rec.header.Get("Content-Type"))
	require.Equal(t, ev.ID.String(), rec.header.Get("X-Event-ID"))
	require.Equal(t, "sale.completed", rec.header.Get("X-Event-Topic"))
	require.Equal(t, ep.ID.String()+":"+ev.ID.String(), rec.header.Get("X-Idempotency-Key"))
	ts, err := strconv.ParseInt(rec.header.Get("X-Timestamp"), 10, 64)
	require.NoError(t, err)
	require.Equal(t, notify.ComputeSignature(ep.Secret, ts, ev.ID.String(), rec.body), rec.header.Get("X-Signature"))

	var payload struct {
		Topic string          `json:"topic"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.body, &payload))
	require.Equal(t, "sale.completed", payload.Topic)
	require.JSONEq(t, `{"data":{"id":1}}`, string(payload.Data))
}

func TestDeliverFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	st := newDeliveryStore()
	ep := st.addEndpoint(srv.URL)
	ev := st.addEvent("sale.completed")
	d := &notify.Dispatcher{Q: st, HTTP: srv.Client()}

	task, err := tasks.NewWebhookTask(ep.ID, ev.ID)
	require.NoError(t, err)
	err = d.ProcessTask(context.Background(), task)
	require.ErrorIs(t, err, notify.ErrDeliveryFailed)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestDeliverToRemovedEndpointIsDropped(t *testing.T) {
	st := newDeliveryStore()
	ev := st.addEvent("sale.completed")
	inactive := st.addEndpoint("https://hooks.example.com/salon")
	inactive.Active = false
	st.endpoints[inactive.ID] = inactive
	d := &notify.Dispatcher{Q: st}

	for _, id := range []uuid.UUID{uuid.New(), inactive.ID} {
		task, err := tasks.NewWebhookTask(id, ev.ID)
		require.NoError(t, err)
		err = d.ProcessTask(context.Background(), task)
		require.ErrorIs(t, err, notify.ErrEndpointGone)
		require.ErrorIs(t, err, asynq.SkipRetry)
	}
}

func TestDeliverGuardSuppressesRepeatButNotFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	status := http.StatusInternalServerError
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	st := newDeliveryStore()
	ep := st.addEndpoint(srv.URL)
	ev := st.addEvent("inventory.low_stock")
	d := &notify.Dispatcher{Q: st, HTTP: srv.Client(), Guard: notify.RedisGuard{R: rdb}, GuardTTL: time.Hour}
	ctx := context.Background()

	require.ErrorIs(t, d.Deliver(ctx, ep.ID, ev.ID), notify.ErrDeliveryFailed)
	status = http.StatusOK
	require.NoError(t, d.Deliver(ctx, ep.ID, ev.ID))
	require.NoError(t, d.Deliver(ctx, ep.ID, ev.ID))
	require.Equal(t, 2, calls)
}

func TestDeliverThroughOpenBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	st := newDeliveryStore()
	ep := st.addEndpoint(srv.URL)
	ev := st.addEvent("sale.completed")
	d := &notify.Dispatcher{Q: st, HTTP: resilience.HTTPClient{
		Client:   srv.Client(),
		Breakers: &resilience.Registry{Settings: resilience.Settings{MinRequests: 1, FailureRatio: 1, OpenFor: time.Minute}},
	}}

	require.ErrorIs(t, d.Deliver(context.Background(), ep.ID, ev.ID), notify.ErrDeliveryFailed)
	require.ErrorIs(t, d.Deliver(context.Background(), ep.ID, ev.ID), resilience.ErrOpenCircuit)
	require.Equal(t, 1, calls)
}

func TestScheduleEnqueuesSubscribedEndpoints(t *testing.T) {
	st := newDeliveryStore()
	all := st.addEndpoint("https://a.example.com/hook")
	sales := st.addEndpoint("https://b.example.com/hook", "sale.completed")
	st.addEndpoint("https://c.example.com/hook", "appointment.booked")
	ev := st.addEvent("sale.completed")

	q := &recordingQueue{}
	d := &notify.Dispatcher{Q: st, Tasks: q, Enabled: true}
	require.NoError(t, d.Schedule(context.Background(), ev))
	require.ElementsMatch(t, [][2]uuid.UUID{{all.ID, ev.ID}, {sales.ID, ev.ID}}, q.pairs)

	disabled := &notify.Dispatcher{Q: st, Tasks: q}
	require.NoError(t, disabled.Schedule(context.Background(), ev))
	require.Len(t, q.pairs, 2)

	q.err = errors.New("redis down")
	err := d.Schedule(context.Background(), ev)
	require.ErrorContains(t, err, "redis down")
}

type endpointStore struct {
	rows map[uuid.UUID]store.WebhookEndpoint
}

func (s *endpointStore) CreateWebhookEndpoint(_ context.Context, arg store.UpsertWebhookEndpointParams) (store.WebhookEndpoint, error) {
	ep := store.WebhookEndpoint{ID: uuid.New(), URL: arg.URL, Secret: arg.Secret, Topics: arg.Topics, Active: arg.Active}
	s.rows[ep.ID] = ep
	return ep, nil
}

func (s *endpointStore) UpdateWebhookEndpoint(_ context.Context, arg store.UpsertWebhookEndpointParams) (store.WebhookEndpoint, error) {
	if _, ok := s.rows[arg.ID]; !ok {
		return store.WebhookEndpoint{}, pgx.ErrNoRows
	}
	ep := store.WebhookEndpoint{ID: arg.ID, URL: arg.URL, Secret: arg.Secret, Topics: arg.Topics, Active: arg.Active}
	s.rows[ep.ID] = ep
	return ep, nil
}

func (s *endpointStore) GetWebhookEndpoint(_ context.Context, id uuid.UUID) (store.WebhookEndpoint, error) {
	ep, ok := s.rows[id]
	if !ok {
		return store.WebhookEndpoint{}, pgx.ErrNoRows
	}
	return ep, nil
}

func (s *endpointStore) ListWebhookEndpoints(context.Context) ([]store.WebhookEndpoint, error) {
	var out []store.WebhookEndpoint
	for _, ep := range s.rows {
		out = append(out, ep)
	}
	return out, nil
}

func (s *endpointStore) DeleteWebhookEndpoint(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

func TestEndpointAdminHandlers(t *testing.T) {
	st := &endpointStore{rows: map[uuid.UUID]store.WebhookEndpoint{}}
	h := &notify.AdminHandler{Endpoints: &notify.Endpoints{Q: st}}

	rec := httptest.NewRecorder()
	h.CreateEndpoint(rec, httptest.NewRequest(http.MethodPost, "/admin/webhooks",
		strings.NewReader(`{"url":"https://hooks.example.com/x","secret":"0123456789abcdef","topics":["Sale.Completed","sale.completed"]}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "0123456789abcdef")
	require.Len(t, st.rows, 1)
	for _, ep := range st.rows {
		require.Equal(t, []string{"sale.completed"}, ep.Topics)
		require.True(t, ep.Active)
	}

	rec = httptest.NewRecorder()
	h.CreateEndpoint(rec, httptest.NewRequest(http.MethodPost, "/admin/webhooks",
		strings.NewReader(`{"url":"http://hooks.example.com/x","secret":"0123456789abcdef"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateEndpoint(rec, httptest.NewRequest(http.MethodPost, "/admin/webhooks",
		strings.NewReader(`{"url":"https://hooks.example.com/x","secret":"0123456789abcdef","topics":["order.paid"]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, st.rows, 1)
}
