package main

import (
	"context"
	"database/sql"
	"time"

	"openid-provider/internal/trust"
	dErrors "openid-provider/pkg/domain-errors"
)

const defaultTrustTxTimeout = 5 * time.Second

// trustPostgresTx commits consent grants in their own SQL transaction so
// the grant is durable before the consent redirect goes out.
type trustPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTrustPostgresTx(db *sql.DB) *trustPostgresTx {
	return &trustPostgresTx{db: db}
}

func (t *trustPostgresTx) RunInTx(ctx context.Context, fn func(registry trust.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTrustTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(trust.NewPostgresTx(tx)); err != nil {
		return err
	}

	return tx.Commit()
}
