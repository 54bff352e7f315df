package worker

import (
	"context"
	"log/slog"
	"time"

	"luckyspot/internal/application"
	"luckyspot/internal/domain"
	"luckyspot/internal/ports/output"
	"luckyspot/pkg/logger"
)

// ExpirySweeper cancels lapsed invitations on a fixed interval and draws a
// replacement for every event that lost a seat. Draws that fail for a
// retryable reason go to retry when it is set.
type ExpirySweeper struct {
	expirer  Expirer
	promoter Promoter
	retry    output.PromotionQueue
	interval time.Duration
}

func NewExpirySweeper(expirer Expirer, promoter Promoter, retry output.PromotionQueue, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{expirer: expirer, promoter: promoter, retry: retry, interval: interval}
}

// Run sweeps every interval until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "luckyspot.worker.expiry"})
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many invitations it expired.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	expired, err := s.expirer.ExpireInvitations(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "expiry sweep incomplete", "error", err)
	}
	if len(expired) == 0 {
		return 0
	}

	// One draw per freed seat. An event stops drawing inline at its first
	// failure; its remaining seats are deferred unless the failure is final.
	stopped := make(map[string]error)
	for _, e := range expired {
		ectx := logger.WithLogFields(ctx, logger.LogFields{EventID: logger.Ptr(e.EventID)})
		if cause, ok := stopped[e.EventID]; ok {
			if !drawSettled(cause) {
				s.postpone(ectx, e.EventID)
			}
			continue
		}
		_, err := s.promoter.Promote(ectx, e.EventID, application.ExpiredReason)
		switch {
		case err == nil:
		case drawSettled(err):
			stopped[e.EventID] = err
			slog.InfoContext(ectx, "no replacement drawn after expiry", "reason", domain.Code(err))
		default:
			stopped[e.EventID] = err
			slog.WarnContext(ectx, "replacement draw after expiry failed", "error", err)
			s.postpone(ectx, e.EventID)
		}
	}
	slog.InfoContext(ctx, "expiry sweep done", "expired", len(expired))
	return len(expired)
}

func (s *ExpirySweeper) postpone(ctx context.Context, eventID string) {
	if s.retry == nil {
		return
	}
	if err := s.retry.EnqueuePromotion(ctx, eventID, application.ExpiredReason); err != nil {
		slog.ErrorContext(ctx, "deferring replacement draw failed", "error", err)
	}
}
