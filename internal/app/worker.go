package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/resilience"
	"github.com/noah-isme/backend-salon/internal/sales"
	"github.com/noah-isme/backend-salon/internal/tasks"
)

const (
	retryBase   = 2 * time.Second
	retryJitter = 0.2
	// WarmSchedule refreshes the report cache shortly after it expires.
	WarmSchedule = "@every 5m"
)

// NewWorkerMux routes every task type to its handler. archive may be nil.
func NewWorkerMux(s *Services, archive sales.Archiver, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(taskLogger(logger))
	mux.Handle(tasks.TypeReceiptRender, sales.ReceiptWorker{Svc: s.Sales, Archive: archive, Logger: &logger})
	mux.Handle(tasks.TypeWebhookDeliver, s.Dispatcher)
	mux.Handle(tasks.TypeReportsWarm, s.Analytics)
	return mux
}

// RetryDelay backs off exponentially from retryBase with jitter.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return resilience.Backoff(retryBase, n+1, retryJitter)
}

func taskLogger(logger zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			id, _ := asynq.GetTaskID(ctx)
			retried, _ := asynq.GetRetryCount(ctx)
			err := next.ProcessTask(ctx, t)
			ev := logger.Info()
			if err != nil {
				ev = logger.Warn().Err(err).Bool("skip_retry", errors.Is(err, asynq.SkipRetry))
			}
			ev.Str("task", t.Type()).Str("task_id", id).Int("retry", retried).
				Dur("duration", time.Since(start)).Msg("task processed")
			return err
		})
	}
}

// TaskLogger adapts zerolog to asynq's logger interface.
type TaskLogger struct {
	Logger zerolog.Logger
}

func (l TaskLogger) Debug(args ...any) { l.Logger.Debug().Msg(fmt.Sprint(args...)) }
func (l TaskLogger) Info(args ...any)  { l.Logger.Info().Msg(fmt.Sprint(args...)) }
func (l TaskLogger) Warn(args ...any)  { l.Logger.Warn().Msg(fmt.Sprint(args...)) }
func (l TaskLogger) Error(args ...any) { l.Logger.Error().Msg(fmt.Sprint(args...)) }
func (l TaskLogger) Fatal(args ...any) { l.Logger.Fatal().Msg(fmt.Sprint(args...)) }
