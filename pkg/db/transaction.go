package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx runs fn in a transaction. It commits when fn returns nil and rolls
// back on error or panic; a panic is re-raised after the rollback.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// LockSlugSpace takes a transaction-scoped advisory lock on space, so
// concurrent writers to one slug space compute and insert one at a time.
// The lock is released on commit or rollback.
func LockSlugSpace(ctx context.Context, q Querier, space string) error {
	_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", space)
	return err
}
