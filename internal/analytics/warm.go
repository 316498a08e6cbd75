package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Warm precomputes the all-branch overview and sales report for today,
// this week and this month so dashboards hit a warm cache.
func (s *Service) Warm(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	var errs []error
	for _, kind := range []string{RangeToday, RangeWeek, RangeMonth} {
		rng, err := ResolveRange(kind, "", "", s.now())
		if err != nil {
			return err
		}
		if _, err := s.Overview(ctx, nil, rng); err != nil {
			errs = append(errs, fmt.Errorf("%s overview: %w", kind, err))
		}
		if _, err := s.Sales(ctx, nil, rng); err != nil {
			errs = append(errs, fmt.Errorf("%s sales: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// ProcessTask handles reports:warm. It drops stale entries before rebuilding.
func (s *Service) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if err := s.Invalidate(ctx); err != nil && s.Logger != nil {
		s.Logger.Warn().Err(err).Msg("analytics cache invalidate failed")
	}
	if err := s.Warm(ctx); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug().Msg("analytics cache warmed")
	}
	return nil
}
