package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/health"
)

func ready(t *testing.T, h *health.Handler) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	(&health.Handler{}).Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReadyWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &health.Handler{Checks: []health.Check{health.Redis(client)}}
	code, body := ready(t, h)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body["redis"])
}

func TestReadyReportsFailingCheck(t *testing.T) {
	h := &health.Handler{Checks: []health.Check{
		{Name: "db", Ping: func(context.Context) error { return errors.New("db down") }},
		{Name: "redis", Ping: func(context.Context) error { return nil }},
	}}
	code, body := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "db down", body["db"])
	require.Equal(t, "ok", body["redis"])
}

func TestReadyTimesOutSlowCheck(t *testing.T) {
	h := &health.Handler{Checks: []health.Check{{
		Name:    "db",
		Timeout: 10 * time.Millisecond,
		Ping: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}}}
	code, body := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), body["db"])
}

func TestSetReadyFalseDrains(t *testing.T) {
	h := &health.Handler{}
	h.SetReady(false)
	code, body := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "draining", body["status"])

	h.SetReady(true)
	code, _ = ready(t, h)
	require.Equal(t, http.StatusOK, code)
}
