package input

import (
	"context"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
)

// QueryUseCase serves list views and count badges. The count methods return
// ok=false for filters that carry no badge.
type QueryUseCase interface {
	Watch(ctx context.Context, eventID string, f domain.Filter) (*live.Subscription[[]entities.Entrant], error)
	WatchCount(ctx context.Context, eventID string, f domain.Filter) (sub *live.Subscription[int], ok bool, err error)
	Count(ctx context.Context, eventID string, f domain.Filter) (n int, ok bool, err error)
	Page(ctx context.Context, eventID string, f domain.Filter, limit, offset int) ([]entities.Entrant, error)
}
