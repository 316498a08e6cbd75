package resilience

import (
	"fmt"
	"net/http"
)

// HTTPClient sends requests through a per-host breaker. It makes a single
// attempt; retries belong to the caller's task queue.
type HTTPClient struct {
	Client   *http.Client
	Breakers *Registry
}

// Do sends req. Transport errors and 5xx answers count as failures for the
// host's breaker; an open breaker fails fast with ErrOpenCircuit.
func (c HTTPClient) Do(req *http.Request) (*http.Response, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	if c.Breakers == nil {
		return client.Do(req)
	}
	ctx := req.Context()
	b := c.Breakers.Get(req.URL.Host)
	if !b.Allow(ctx) {
		return nil, fmt.Errorf("%s: %w", req.URL.Host, ErrOpenCircuit)
	}
	resp, err := client.Do(req)
	b.Report(ctx, err == nil && resp.StatusCode < 500)
	return resp, err
}
