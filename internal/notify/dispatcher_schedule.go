package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/backend-salon/internal/store"
)

// Schedule implements events.DeliveryScheduler: one webhook:deliver task per
// active endpoint subscribed to the event's topic.
func (d *Dispatcher) Schedule(ctx context.Context, ev store.DomainEvent) error {
	if d == nil || !d.Enabled || d.Q == nil || d.Tasks == nil {
		return nil
	}
	endpoints, err := d.Q.ListActiveEndpointsForTopic(ctx, ev.Topic)
	if err != nil {
		return fmt.Errorf("list endpoints: %w", err)
	}
	var joined error
	for _, ep := range endpoints {
		if err := d.Tasks.EnqueueWebhook(ctx, ep.ID, ev.ID); err != nil {
			joined = errors.Join(joined, fmt.Errorf("enqueue delivery for %s: %w", ep.ID, err))
		}
	}
	return joined
}
