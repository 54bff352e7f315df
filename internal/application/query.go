package application

import (
	"context"
	"fmt"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
	"luckyspot/pkg/logger"
)

var _ input.QueryUseCase = (*QueryEngine)(nil)

// FilterQuery maps a filter to its predicate and order. Every filter orders
// by its primary timestamp descending, then UID descending.
func FilterQuery(f domain.Filter) (entities.Query, error) {
	switch f {
	case domain.FilterSelected:
		return entities.Query{Where: entities.Predicate{Selected: logger.Ptr(true)}, OrderBy: entities.FieldSelection}, nil
	case domain.FilterPending:
		return byStatus(domain.StatusPending, entities.FieldSelection), nil
	case domain.FilterAccepted:
		return byStatus(domain.StatusAccepted, entities.FieldSelection), nil
	case domain.FilterDeclined:
		return byStatus(domain.StatusDeclined, entities.FieldSelection), nil
	case domain.FilterConfirmed:
		return byStatus(domain.StatusConfirmed, entities.FieldConfirmation), nil
	case domain.FilterCancelled:
		return byStatus(domain.StatusCancelled, entities.FieldCancellation), nil
	case domain.FilterAll:
		return entities.Query{OrderBy: entities.FieldSelection}, nil
	}
	return entities.Query{}, fmt.Errorf("%w: %d", domain.ErrInvalidFilter, int(f))
}

func byStatus(s domain.Status, order entities.TimestampField) entities.Query {
	return entities.Query{Where: entities.Predicate{Status: &s}, OrderBy: order}
}

// Countable reports whether f has a count badge.
func Countable(f domain.Filter) bool {
	return f == domain.FilterSelected || f == domain.FilterConfirmed
}

type QueryEngine struct {
	store    output.EntrantStore
	recorder output.Recorder
}

func NewQueryEngine(store output.EntrantStore, recorder output.Recorder) *QueryEngine {
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	return &QueryEngine{store: store, recorder: recorder}
}

// Watch opens a live list for f.
func (q *QueryEngine) Watch(ctx context.Context, eventID string, f domain.Filter) (*live.Subscription[[]entities.Entrant], error) {
	query, err := FilterQuery(f)
	if err != nil {
		return nil, err
	}
	sub, err := q.store.Query(ctx, eventID, query)
	if err != nil {
		return nil, fmt.Errorf("watch %s entrants: %w", f, err)
	}
	q.track(sub.Done())
	return sub, nil
}

// WatchCount opens a live count for f. Filters without a badge return
// ok=false and no subscription.
func (q *QueryEngine) WatchCount(ctx context.Context, eventID string, f domain.Filter) (*live.Subscription[int], bool, error) {
	if !Countable(f) {
		return nil, false, nil
	}
	query, err := FilterQuery(f)
	if err != nil {
		return nil, false, err
	}
	sub, err := q.store.WatchCount(ctx, eventID, query.Where)
	if err != nil {
		return nil, true, fmt.Errorf("watch %s count: %w", f, err)
	}
	q.track(sub.Done())
	return sub, true, nil
}

func (q *QueryEngine) Count(ctx context.Context, eventID string, f domain.Filter) (int, bool, error) {
	if !Countable(f) {
		return 0, false, nil
	}
	query, err := FilterQuery(f)
	if err != nil {
		return 0, false, err
	}
	n, err := q.store.Count(ctx, eventID, query.Where)
	if err != nil {
		return 0, true, fmt.Errorf("count %s: %w", f, err)
	}
	return n, true, nil
}

// Page returns one page of f's list, in list order.
func (q *QueryEngine) Page(ctx context.Context, eventID string, f domain.Filter, limit, offset int) ([]entities.Entrant, error) {
	query, err := FilterQuery(f)
	if err != nil {
		return nil, err
	}
	query.Limit = max(limit, 0)
	query.Offset = max(offset, 0)
	out, err := q.store.List(ctx, eventID, query)
	if err != nil {
		return nil, fmt.Errorf("list %s entrants: %w", f, err)
	}
	return out, nil
}

func (q *QueryEngine) track(done <-chan struct{}) {
	q.recorder.Subscriptions(1)
	go func() {
		<-done
		q.recorder.Subscriptions(-1)
	}()
}
