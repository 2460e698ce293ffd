package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "samved/pkg/domain-errors"
	txcontext "samved/pkg/platform/tx"
)

const defaultTeamTxTimeout = 5 * time.Second

// teamPostgresTx runs the team deletion cascade in one transaction. The
// identity and team Postgres stores pick the transaction up from context.
type teamPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTeamPostgresTx(db *sql.DB) *teamPostgresTx {
	return &teamPostgresTx{db: db}
}

func (t *teamPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTeamTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return txcontext.Run(ctx, t.db, fn)
}
