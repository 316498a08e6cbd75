// Package app is the composition root shared by the API and worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/config"
	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/resilience"
	"github.com/noah-isme/backend-salon/internal/store"
)

// Dependencies are the process-wide connections every component shares.
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	DB      *pgxpool.Pool
	Queries *store.Queries
	Redis   *redis.Client
	Tasks   *asynq.Client
	// Registerer receives the domain and breaker collectors.
	Registerer prometheus.Registerer
}

// Open connects to Postgres and Redis, applies migrations when enabled and
// registers metrics. name becomes the Postgres application_name.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, name string) (*Dependencies, error) {
	d := &Dependencies{Config: cfg, Logger: logger, Registerer: prometheus.DefaultRegisterer}

	if cfg.DBAutoMigrate {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = name
	if cfg.DBMaxConns > 0 {
		poolConfig.MaxConns = cfg.DBMaxConns
	}
	d.DB, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := d.DB.Ping(ctx); err != nil {
		d.DB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	d.Queries = store.New(d.DB)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		d.DB.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	d.Redis = redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(d.Redis); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(d.Redis); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := d.Redis.Ping(ctx).Err(); err != nil {
		d.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("parse task queue url: %w", err)
	}
	d.Tasks = asynq.NewClient(taskOpt)

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, d.Registerer)
	resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, d.Registerer)
	return d, nil
}

// Close releases every connection that was opened.
func (d *Dependencies) Close() error {
	var err error
	if d.Tasks != nil {
		err = errors.Join(err, d.Tasks.Close())
	}
	if d.Redis != nil {
		err = errors.Join(err, d.Redis.Close())
	}
	if d.DB != nil {
		d.DB.Close()
	}
	return err
}
