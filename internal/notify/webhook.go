package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/store"
)

var (
	// ErrEndpointGone is returned when the endpoint was deleted or deactivated
	// after the delivery was scheduled.
	ErrEndpointGone = errors.New("webhook endpoint gone")
	// ErrDeliveryFailed is returned for transport errors and non-2xx answers.
	ErrDeliveryFailed = errors.New("webhook delivery failed")
)

// WebhookQueue schedules one delivery per endpoint and event.
type WebhookQueue interface {
	EnqueueWebhook(ctx context.Context, endpointID, eventID uuid.UUID) error
}

// Doer sends one HTTP request. *http.Client and resilience.HTTPClient both qualify.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher schedules webhook deliveries on the task queue and performs them
// from the worker.
type Dispatcher struct {
	Q       DeliveryQuerier
	Tasks   WebhookQueue
	HTTP    Doer
	Enabled bool
	Guard   DeliveryGuard
	// GuardTTL bounds how long a delivered event is remembered per endpoint.
	GuardTTL time.Duration
	Logger   *zerolog.Logger
	Now      func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Deliver sends one event to one endpoint. It is safe to call again for the
// same pair: a delivery already acknowledged within GuardTTL is not repeated.
func (d *Dispatcher) Deliver(ctx context.Context, endpointID, eventID uuid.UUID) error {
	if d == nil || d.Q == nil {
		return errors.New("webhook dispatcher not configured")
	}
	ctx, span := otel.Tracer("notify.Dispatcher").Start(ctx, "Dispatcher.Deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("webhook.endpoint_id", endpointID.String()),
		attribute.String("webhook.event_id", eventID.String()),
	)

	ep, err := d.Q.GetWebhookEndpoint(ctx, endpointID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEndpointGone
		}
		return fmt.Errorf("load endpoint: %w", err)
	}
	if !ep.Active {
		return ErrEndpointGone
	}
	ev, err := d.Q.GetDomainEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	span.SetAttributes(attribute.String("webhook.topic", ev.Topic))

	key := guardKey(endpointID, eventID)
	if d.Guard != nil && d.GuardTTL > 0 {
		ok, err := d.Guard.Acquire(ctx, key, d.GuardTTL)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if !ok {
			span.AddEvent("delivery replay prevented")
			obs.IncCounter(obs.WebhookDeliveriesTotal, "suppressed")
			return nil
		}
	}

	start := time.Now()
	status, err := d.post(ctx, ep, ev)
	result := "delivered"
	if err == nil && (status < 200 || status > 299) {
		err = fmt.Errorf("%w: status %d", ErrDeliveryFailed, status)
	}
	if err != nil {
		result = "failed"
		span.RecordError(err)
		if d.Guard != nil && d.GuardTTL > 0 {
			if relErr := d.Guard.Release(context.Background(), key); relErr != nil && d.Logger != nil {
				d.Logger.Warn().Err(relErr).Str("key", key).Msg("release webhook guard failed")
			}
		}
	}
	obs.IncCounter(obs.WebhookDeliveriesTotal, result)
	if obs.WebhookAttemptLatency != nil {
		obs.WebhookAttemptLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	return err
}

func (d *Dispatcher) post(ctx context.Context, ep store.WebhookEndpoint, ev store.DomainEvent) (int, error) {
	if err := validateURL(ep.URL); err != nil {
		return 0, err
	}
	body, err := json.Marshal(struct {
		EventID    string          `json:"eventId"`
		Topic      string          `json:"topic"`
		Data       json.RawMessage `json:"data"`
		OccurredAt time.Time       `json:"occurredAt"`
	}{ev.ID.String(), ev.Topic, json.RawMessage(ev.Payload), ev.OccurredAt})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	ts := d.now().Unix()
	eventID := ev.ID.String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "salon-webhooks/1.0")
	req.Header.Set("X-Event-ID", eventID)
	req.Header.Set("X-Event-Topic", ev.Topic)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Idempotency-Key", ep.ID.String()+":"+eventID)
	req.Header.Set("X-Signature", ComputeSignature(ep.Secret, ts, eventID, body))

	client := d.HTTP
	if client == nil {
		client = HTTPClient(5 * time.Second)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

// ComputeSignature is the hex HMAC-SHA256 of "<ts>.<eventID>.<body>" keyed by
// the endpoint secret.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HTTPClient returns a traced client for webhook delivery.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// validateURL allows plain http only for loopback hosts.
func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	switch parsed.Scheme {
	case "https":
		return nil
	case "http":
		host := parsed.Hostname()
		if host == "localhost" || host == "127.0.0.1" || host == "::1" {
			return nil
		}
		return errors.New("http webhook only allowed for localhost")
	default:
		return errors.New("webhook url must be http or https")
	}
}
