package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-salon/internal/tasks"
)

// ProcessTask handles webhook:deliver. Deliveries to removed endpoints are
// dropped without retry; failed posts are retried by asynq with backoff.
func (d *Dispatcher) ProcessTask(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseWebhook(t)
	if err != nil {
		return err
	}
	err = d.Deliver(ctx, p.EndpointID, p.EventID)
	if errors.Is(err, ErrEndpointGone) {
		if d.Logger != nil {
			d.Logger.Info().Str("endpoint", p.EndpointID.String()).Str("event", p.EventID.String()).Msg("webhook endpoint gone, dropping delivery")
		}
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
