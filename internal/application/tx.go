package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"luckyspot/internal/domain"
	"luckyspot/internal/ports/output"
)

// Config tunes the lifecycle services.
type Config struct {
	// MaxAttempts bounds how often a transaction is re-run after a conflict.
	MaxAttempts int
	// InvitationTTL is how long a drawn entrant has to answer.
	InvitationTTL time.Duration
}

func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// runTx runs fn in a store transaction, re-running it while the store
// reports a conflict. fn must not keep state across attempts.
func runTx(ctx context.Context, store output.EntrantStore, rec output.Recorder, cfg Config, op, eventID string, fn func(tx output.EntrantTx) error) error {
	var err error
	for attempt := 1; attempt <= cfg.attempts(); attempt++ {
		err = store.WithTx(ctx, eventID, fn)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		rec.TxConflict(op)
		slog.DebugContext(ctx, "transaction conflict", "op", op, "attempt", attempt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, cfg.attempts(), err)
}

// result labels an operation outcome for metrics.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := domain.Code(err); code != "" {
		return code
	}
	return "error"
}
