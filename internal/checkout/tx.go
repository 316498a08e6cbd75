package checkout

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/store"
)

// PgxTx runs finalisation work in one Postgres transaction.
type PgxTx struct {
	Pool *pgxpool.Pool
	Q    *store.Queries
}

// InTx commits when fn succeeds and the context is still live; otherwise it rolls back.
func (p PgxTx) InTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := p.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(p.Q.WithTx(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
