package output

import (
	"context"
	"time"

	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
)

// EntrantStore persists entrant records and event rosters. Every committed
// mutation is announced on the store's ChangeFeed.
type EntrantStore interface {
	Get(ctx context.Context, eventID, entrantID string) (*entities.Entrant, error)
	// Put applies a partial update. A failed IfStatus condition returns
	// domain.ErrConflict; a missing record returns domain.ErrEntrantNotFound.
	Put(ctx context.Context, eventID, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error)
	List(ctx context.Context, eventID string, q entities.Query) ([]entities.Entrant, error)
	Count(ctx context.Context, eventID string, p entities.Predicate) (int, error)
	Query(ctx context.Context, eventID string, q entities.Query) (*live.Subscription[[]entities.Entrant], error)
	WatchCount(ctx context.Context, eventID string, p entities.Predicate) (*live.Subscription[int], error)
	Roster(ctx context.Context, eventID string) (*entities.Roster, error)
	Replacements(ctx context.Context, eventID string) ([]entities.Replacement, error)
	// ListExpiredInvitations returns pending selected entrants, across events,
	// whose invitation expired before the store's clock.
	ListExpiredInvitations(ctx context.Context, limit int) ([]entities.Entrant, error)
	// WithTx runs fn as one serializable read-modify-write over eventID's
	// records and roster. Concurrent conflicting commits make WithTx return
	// domain.ErrConflict; nothing fn wrote is kept in that case.
	WithTx(ctx context.Context, eventID string, fn func(tx EntrantTx) error) error
}

// EntrantTx is the view of one event inside WithTx.
type EntrantTx interface {
	// Now is the store clock for this transaction.
	Now() time.Time
	Get(ctx context.Context, entrantID string) (*entities.Entrant, error)
	FindByUID(ctx context.Context, uid string) (*entities.Entrant, error)
	Create(ctx context.Context, e *entities.Entrant) error
	Put(ctx context.Context, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error)
	Roster(ctx context.Context) (*entities.Roster, error)
	SaveRoster(ctx context.Context, r *entities.Roster) error
	AppendReplacement(ctx context.Context, r entities.Replacement) error
}
