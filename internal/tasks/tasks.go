// Package tasks defines the background jobs shared by the API and the worker.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeReceiptRender  = "receipt:render"
	TypeWebhookDeliver = "webhook:deliver"
	TypeReportsWarm    = "reports:warm"
)

// Queue names and the weights the worker serves them with.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues maps each queue to its priority weight.
var Queues = map[string]int{QueueCritical: 6, QueueDefault: 3, QueueLow: 1}

// ReceiptPayload identifies the sale whose receipt should be rendered.
type ReceiptPayload struct {
	SaleID uuid.UUID `json:"saleId"`
}

// WebhookPayload identifies one endpoint and one event to deliver.
type WebhookPayload struct {
	EndpointID uuid.UUID `json:"endpointId"`
	EventID    uuid.UUID `json:"eventId"`
}

// NewReceiptTask builds a receipt:render task.
func NewReceiptTask(saleID uuid.UUID) (*asynq.Task, error) {
	raw, err := json.Marshal(ReceiptPayload{SaleID: saleID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReceiptRender, raw), nil
}

// NewWebhookTask builds a webhook:deliver task.
func NewWebhookTask(endpointID, eventID uuid.UUID) (*asynq.Task, error) {
	raw, err := json.Marshal(WebhookPayload{EndpointID: endpointID, EventID: eventID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWebhookDeliver, raw), nil
}

// NewReportsWarmTask builds a reports:warm task.
func NewReportsWarmTask() *asynq.Task {
	return asynq.NewTask(TypeReportsWarm, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// ParseReceipt decodes a receipt:render payload. Malformed payloads are not retried.
func ParseReceipt(t *asynq.Task) (ReceiptPayload, error) {
	var p ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.SaleID == uuid.Nil {
		return p, fmt.Errorf("receipt payload: %v: %w", err, asynq.SkipRetry)
	}
	return p, nil
}

// ParseWebhook decodes a webhook:deliver payload. Malformed payloads are not retried.
func ParseWebhook(t *asynq.Task) (WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.EndpointID == uuid.Nil || p.EventID == uuid.Nil {
		return p, fmt.Errorf("webhook payload: %v: %w", err, asynq.SkipRetry)
	}
	return p, nil
}

// Enqueuer is the part of *asynq.Client used to publish tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client publishes tasks with stable ids so a repeated enqueue is a no-op.
type Client struct {
	Q        Enqueuer
	MaxRetry int
}

// EnqueueReceipt schedules rendering of one sale's receipt.
func (c Client) EnqueueReceipt(ctx context.Context, saleID uuid.UUID) error {
	task, err := NewReceiptTask(saleID)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, QueueDefault, "receipt:"+saleID.String())
}

// EnqueueWebhook schedules delivery of one event to one endpoint.
func (c Client) EnqueueWebhook(ctx context.Context, endpointID, eventID uuid.UUID) error {
	task, err := NewWebhookTask(endpointID, eventID)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, QueueCritical, "webhook:"+endpointID.String()+":"+eventID.String())
}

func (c Client) enqueue(ctx context.Context, task *asynq.Task, queue, id string) error {
	if c.Q == nil {
		return errors.New("tasks: client not configured")
	}
	retry := c.MaxRetry
	if retry <= 0 {
		retry = 5
	}
	_, err := c.Q.EnqueueContext(ctx, task, asynq.TaskID(id), asynq.Queue(queue), asynq.MaxRetry(retry))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}
