package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/notify"
	"github.com/noah-isme/backend-salon/internal/store"
)

type inboxStore struct {
	rows []store.Notification
}

func (s *inboxStore) InsertNotification(_ context.Context, arg store.InsertNotificationParams) (store.Notification, error) {
	n := store.Notification{
		ID: uuid.New(), BranchID: arg.BranchID, Title: arg.Title, Message: arg.Message, Kind: arg.Kind,
		Priority: arg.Priority, RelatedEntity: arg.RelatedEntity, EntityID: arg.EntityID,
	}
	s.rows = append(s.rows, n)
	return n, nil
}

func (s *inboxStore) ListNotifications(_ context.Context, arg store.ListNotificationsParams) ([]store.Notification, error) {
	var out []store.Notification
	for _, n := range s.rows {
		if arg.UnreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *inboxStore) MarkNotificationRead(_ context.Context, id uuid.UUID) (int64, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Read = true
			return 1, nil
		}
	}
	return 0, nil
}

func (s *inboxStore) DeleteNotification(_ context.Context, id uuid.UUID) (int64, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type published struct {
	channel string
	body    []byte
}

type recordingPublisher struct {
	msgs []published
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.msgs = append(p.msgs, published{channel, message.([]byte)})
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func emitted(t *testing.T, topic string, notice *events.Notice, data any) store.DomainEvent {
	t.Helper()
	raw, err := json.Marshal(events.Envelope{Notice: notice, Data: data})
	require.NoError(t, err)
	return store.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: uuid.New(), Payload: raw}
}

func TestInboxNotifierPersistsAndPublishes(t *testing.T) {
	st := &inboxStore{}
	pub := &recordingPublisher{}
	n := notify.InboxNotifier{Q: st, Pub: pub}
	branchID := uuid.New()

	ev := emitted(t, events.TopicInventoryLowStock, &events.Notice{
		Title: "Low Stock Alert", Message: "Argan Oil is running low (5 units remaining)", Kind: "warning",
		Priority: events.PriorityHigh, BranchID: &branchID, RelatedEntity: "inventory",
	}, nil)
	require.NoError(t, n.Notify(context.Background(), ev))

	require.Len(t, st.rows, 1)
	row := st.rows[0]
	require.Equal(t, "high", row.Priority)
	require.Equal(t, "inventory", *row.RelatedEntity)
	require.Equal(t, ev.AggregateID, *row.EntityID)

	require.Len(t, pub.msgs, 1)
	require.Equal(t, "branch:"+branchID.String()+":notifications", pub.msgs[0].channel)
	require.Contains(t, string(pub.msgs[0].body), `"topic":"inventory.low_stock"`)

	require.NoError(t, n.Notify(context.Background(), emitted(t, "sale.completed", nil, map[string]int{"x": 1})))
	require.Len(t, st.rows, 1, "events without a notice are not stored")

	require.Equal(t, "branch:all:notifications", notify.BranchChannel(nil))
}

func TestEmailNotifierMailsCustomer(t *testing.T) {
	mail := &common.InMemoryEmail{}
	n := notify.EmailNotifier{Mail: mail, Enabled: true, From: "desk@salon.test", BusinessName: "Femina Flaunt"}
	ctx := context.Background()

	sale := map[string]any{
		"sale":     map[string]any{"invoiceNumber": "INV-42", "total": decimal.RequireFromString("141.6")},
		"customer": map[string]any{"name": "Asha", "email": "asha@example.com"},
	}
	require.NoError(t, n.Notify(ctx, emitted(t, events.TopicSaleCompleted, &events.Notice{Title: "Sale Completed"}, sale)))
	require.Len(t, mail.Outbox, 1)
	msg := mail.Outbox[0]
	require.Equal(t, "asha@example.com", msg.To)
	require.Equal(t, "Your receipt INV-42", msg.Subject)
	require.Contains(t, msg.HTML, "₹141.60")

	walkIn := map[string]any{"sale": map[string]any{"invoiceNumber": "INV-43"}}
	require.NoError(t, n.Notify(ctx, emitted(t, events.TopicSaleCompleted, nil, walkIn)))
	require.NoError(t, n.Notify(ctx, emitted(t, events.TopicInventoryLowStock, nil, map[string]string{"email": "x@example.com"})))
	require.Len(t, mail.Outbox, 1)

	n.TopicToggles = map[string]bool{events.TopicCustomerCreated: false}
	require.NoError(t, n.Notify(ctx, emitted(t, events.TopicCustomerCreated, nil, map[string]string{"email": "new@example.com"})))
	require.Len(t, mail.Outbox, 1)
}

func TestInboxHandlers(t *testing.T) {
	st := &inboxStore{}
	n := notify.InboxNotifier{Q: st}
	require.NoError(t, n.Notify(context.Background(), emitted(t, events.TopicSaleCompleted, &events.Notice{Title: "Sale Completed", Priority: "low"}, nil)))
	id := st.rows[0].ID

	h := &notify.InboxHandler{Inbox: &notify.Inbox{Q: st}}
	r := chi.NewRouter()
	r.Get("/notifications", h.List)
	r.Post("/notifications/{id}/read", h.MarkRead)
	r.Delete("/notifications/{id}", h.Delete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notifications/"+id.String()+"/read", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/notifications/"+id.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/notifications/"+id.String(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
