// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

const defaultTimeout = 500 * time.Millisecond

// Check probes one dependency.
type Check struct {
	Name    string
	Timeout time.Duration
	Ping    func(ctx context.Context) error
}

// Postgres checks the pool with a ping.
func Postgres(pool *pgxpool.Pool) Check {
	return Check{Name: "db", Ping: pool.Ping}
}

// Redis checks the client with PING.
func Redis(client *redis.Client) Check {
	return Check{Name: "redis", Timeout: 300 * time.Millisecond, Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// Handler exposes /health/live and /health/ready.
type Handler struct {
	Checks []Check

	draining atomic.Bool
}

// SetReady flips readiness. The API marks itself not ready before draining
// connections on shutdown.
func (h *Handler) SetReady(ready bool) {
	h.draining.Store(!ready)
}

// Live always answers 200 while the process is up.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready runs every check concurrently and answers 503 if any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	results := make(map[string]string, len(h.Checks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, c := range h.Checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			status := run(r.Context(), c)
			mu.Lock()
			results[c.Name] = status
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	code := http.StatusOK
	for _, status := range results {
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, results)
}

func run(ctx context.Context, c Check) string {
	if c.Ping == nil {
		return "not configured"
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
