package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-salon/internal/store"
)

// InboxQuerier captures the notification rows used by the inbox.
type InboxQuerier interface {
	InsertNotification(ctx context.Context, arg store.InsertNotificationParams) (store.Notification, error)
	ListNotifications(ctx context.Context, arg store.ListNotificationsParams) ([]store.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) (int64, error)
}

// EndpointQuerier captures webhook endpoint management.
type EndpointQuerier interface {
	CreateWebhookEndpoint(ctx context.Context, arg store.UpsertWebhookEndpointParams) (store.WebhookEndpoint, error)
	UpdateWebhookEndpoint(ctx context.Context, arg store.UpsertWebhookEndpointParams) (store.WebhookEndpoint, error)
	GetWebhookEndpoint(ctx context.Context, id uuid.UUID) (store.WebhookEndpoint, error)
	ListWebhookEndpoints(ctx context.Context) ([]store.WebhookEndpoint, error)
	DeleteWebhookEndpoint(ctx context.Context, id uuid.UUID) (int64, error)
}

// DeliveryQuerier captures what the dispatcher reads to schedule and send deliveries.
type DeliveryQuerier interface {
	ListActiveEndpointsForTopic(ctx context.Context, topic string) ([]store.WebhookEndpoint, error)
	GetWebhookEndpoint(ctx context.Context, id uuid.UUID) (store.WebhookEndpoint, error)
	GetDomainEvent(ctx context.Context, id uuid.UUID) (store.DomainEvent, error)
}
