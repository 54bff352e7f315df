package discord

import (
	"context"
	"log/slog"
	"time"
)

// RunScheduledTasks closes panels whose interaction token is about to lapse,
// once a minute until ctx is done.
func (h *Handler) RunScheduledTasks(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := h.panels.expire(now); n > 0 {
				slog.Info("discord: expired panels closed", "count", n, "open", h.panels.size())
			}
		}
	}
}
