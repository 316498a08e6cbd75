package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/common"
	"github.com/noah-isme/backend-salon/internal/store"
)

type stubStore struct {
	inserts    []store.InsertAuditLogParams
	insertErr  error
	lastList   store.ListAuditLogsParams
	listResult []store.AuditLog
}

func (s *stubStore) InsertAuditLog(_ context.Context, arg store.InsertAuditLogParams) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserts = append(s.inserts, arg)
	return nil
}

func (s *stubStore) ListAuditLogs(_ context.Context, arg store.ListAuditLogsParams) ([]store.AuditLog, error) {
	s.lastList = arg
	return s.listResult, nil
}

func adminRequest(method, target string, staffID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(`{}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Request-ID", "req-1")
	return req.WithContext(common.WithPrincipal(req.Context(), common.Principal{StaffID: staffID, Role: "admin"}))
}

func TestMiddlewareRecordsWritesWithActor(t *testing.T) {
	st := &stubStore{}
	rec := HTTPRecorder{Service: &Service{Store: st, Enabled: true}}
	r := chi.NewRouter()
	r.With(rec.Middleware(HTTPConfig{ResourceIDParam: "id"})).Put("/api/v1/coupons/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(rec.Middleware(HTTPConfig{Action: "sale.cancel", ResourceType: "sale"})).Get("/api/v1/sales", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	staffID := uuid.New()
	couponID := uuid.NewString()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest(http.MethodPut, "/api/v1/coupons/"+couponID, staffID))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, st.inserts, 1)
	got := st.inserts[0]
	require.Equal(t, "PUT /api/v1/coupons/{id}", got.Action)
	require.Equal(t, "coupons", got.ResourceType)
	require.Equal(t, couponID, got.ResourceID)
	require.Equal(t, int32(http.StatusOK), got.StatusCode)
	require.Equal(t, staffID, *got.StaffID)
	require.Equal(t, "admin", got.Role)
	require.Equal(t, "req-1", got.RequestID)
	require.NotEmpty(t, got.IP)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, adminRequest(http.MethodGet, "/api/v1/sales", staffID))
	require.Len(t, st.inserts, 1)
}

func TestMiddlewareKeepsResponseWhenRecordingFails(t *testing.T) {
	st := &stubStore{insertErr: errors.New("db down")}
	var reported error
	rec := HTTPRecorder{Service: &Service{Store: st, Enabled: true}, OnError: func(err error) { reported = err }}
	h := rec.Middleware(HTTPConfig{Action: "settings.update", ResourceType: "settings"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, adminRequest(http.MethodPut, "/api/v1/settings", uuid.New()))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.EqualError(t, reported, "db down")
}

func TestDisabledServiceRecordsNothing(t *testing.T) {
	st := &stubStore{}
	svc := &Service{Store: st}
	require.NoError(t, svc.Record(context.Background(), adminRequest(http.MethodPost, "/api/v1/branches", uuid.New()), Entry{}))
	require.Empty(t, st.inserts)
}

func TestBuildResource(t *testing.T) {
	require.Equal(t, "sales.cancel", buildResource("", "/api/v1/sales/{id}/cancel"))
	require.Equal(t, "webhooks", buildResource("", "/api/v1/webhooks"))
	require.Equal(t, "settings", buildResource(" settings ", "/x"))
	require.Equal(t, "unknown", buildResource("", "/"))
}

func TestHandlerList(t *testing.T) {
	st := &stubStore{listResult: []store.AuditLog{{Action: "sale.cancel", Method: "POST"}}}
	h := Handler{Store: st}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/audit-logs?limit=25&offset=10&resource=coupons", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, store.ListAuditLogsParams{ResourceType: "coupons", Limit: 25, Offset: 10}, st.lastList)
	require.Contains(t, rr.Body.String(), "sale.cancel")

	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/audit-logs?limit=5000&offset=-3", nil))
	require.Equal(t, store.ListAuditLogsParams{Limit: 50}, st.lastList)

	rr = httptest.NewRecorder()
	Handler{}.List(rr, httptest.NewRequest(http.MethodGet, "/audit-logs", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
