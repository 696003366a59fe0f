package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	// DBConnKey carries a request-scoped pooled connection.
	DBConnKey contextKey = "db_conn"
	// DBTxKey carries an open transaction for all-or-nothing writes.
	DBTxKey contextKey = "db_tx"
)

// ConnFromContext retrieves the request-scoped database connection, if any.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// TxFromContext retrieves the open transaction, if any. Repositories prefer
// it over the pool so multi-statement writes stay atomic per document.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx runs fn inside a transaction stashed in the context. The transaction
// commits when fn returns nil and rolls back otherwise, so a failed write
// never partially applies.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
