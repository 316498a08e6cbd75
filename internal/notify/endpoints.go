package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-salon/internal/events"
	"github.com/noah-isme/backend-salon/internal/store"
)

// ErrInvalidEndpoint is returned for bad URLs, missing secrets or unknown topics.
var ErrInvalidEndpoint = errors.New("invalid webhook endpoint")

// EndpointInput describes a webhook subscription. Empty Topics subscribes to everything.
type EndpointInput struct {
	URL    string   `json:"url" validate:"required,url"`
	Secret string   `json:"secret" validate:"required,min=16"`
	Topics []string `json:"topics"`
	Active *bool    `json:"active"`
}

func (in EndpointInput) params(id uuid.UUID) (store.UpsertWebhookEndpointParams, error) {
	if err := validateURL(in.URL); err != nil {
		return store.UpsertWebhookEndpointParams{}, fmt.Errorf("%v: %w", err, ErrInvalidEndpoint)
	}
	if strings.TrimSpace(in.Secret) == "" {
		return store.UpsertWebhookEndpointParams{}, fmt.Errorf("secret is required: %w", ErrInvalidEndpoint)
	}
	topics, err := normaliseTopics(in.Topics)
	if err != nil {
		return store.UpsertWebhookEndpointParams{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return store.UpsertWebhookEndpointParams{
		ID: id, URL: strings.TrimSpace(in.URL), Secret: in.Secret, Topics: topics, Active: active,
	}, nil
}

func normaliseTopics(topics []string) ([]string, error) {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !events.IsKnownTopic(t) {
			return nil, fmt.Errorf("unknown topic %q: %w", t, ErrInvalidEndpoint)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Endpoints manages webhook subscriptions.
type Endpoints struct {
	Q EndpointQuerier
}

// Create registers an endpoint.
func (e *Endpoints) Create(ctx context.Context, in EndpointInput) (store.WebhookEndpoint, error) {
	if e == nil || e.Q == nil {
		return store.WebhookEndpoint{}, errors.New("webhook endpoints not configured")
	}
	p, err := in.params(uuid.Nil)
	if err != nil {
		return store.WebhookEndpoint{}, err
	}
	return e.Q.CreateWebhookEndpoint(ctx, p)
}

// Update replaces an endpoint's configuration.
func (e *Endpoints) Update(ctx context.Context, id uuid.UUID, in EndpointInput) (store.WebhookEndpoint, error) {
	p, err := in.params(id)
	if err != nil {
		return store.WebhookEndpoint{}, err
	}
	ep, err := e.Q.UpdateWebhookEndpoint(ctx, p)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.WebhookEndpoint{}, ErrNotFound
	}
	return ep, err
}

// Get loads one endpoint.
func (e *Endpoints) Get(ctx context.Context, id uuid.UUID) (store.WebhookEndpoint, error) {
	ep, err := e.Q.GetWebhookEndpoint(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.WebhookEndpoint{}, ErrNotFound
	}
	return ep, err
}

// List returns every endpoint, oldest first.
func (e *Endpoints) List(ctx context.Context) ([]store.WebhookEndpoint, error) {
	items, err := e.Q.ListWebhookEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.WebhookEndpoint{}
	}
	return items, nil
}

// Delete removes an endpoint. Pending deliveries for it are dropped by the worker.
func (e *Endpoints) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := e.Q.DeleteWebhookEndpoint(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
