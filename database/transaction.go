package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// WithTransaction runs fn in a read-committed transaction. An error from fn rolls back.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.WithTransactionOptions(ctx, pgx.TxOptions{}, fn)
}

// WithTransactionOptions is WithTransaction with an explicit isolation or access mode
func (db *DB) WithTransactionOptions(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	if err := pgx.BeginTxFunc(ctx, db.Pool, opts, fn); err != nil {
		return fmt.Errorf("transaction (%s): %w", isolationName(opts), err)
	}
	return nil
}

func isolationName(opts pgx.TxOptions) string {
	if opts.IsoLevel == "" {
		return "read committed"
	}
	return string(opts.IsoLevel)
}
