package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
	"luckyspot/internal/ports/output"
)

var _ output.EntrantStore = (*EntrantStore)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EntrantStore implements output.EntrantStore on PostgreSQL. Transactions
// run at SERIALIZABLE isolation; serialization failures surface as
// domain.ErrConflict.
type EntrantStore struct {
	pool *pgxpool.Pool
	feed output.ChangeFeed
}

func NewEntrantStore(pool *pgxpool.Pool, feed output.ChangeFeed) *EntrantStore {
	return &EntrantStore{pool: pool, feed: feed}
}

func (s *EntrantStore) publish(ctx context.Context, eventID string) {
	if err := s.feed.Publish(context.WithoutCancel(ctx), eventID); err != nil {
		slog.WarnContext(ctx, "change notification failed", "event_id", eventID, "error", err)
	}
}

func (s *EntrantStore) Get(ctx context.Context, eventID, entrantID string) (*entities.Entrant, error) {
	return getEntrant(ctx, s.pool, eventID, entrantID, false)
}

func (s *EntrantStore) Put(ctx context.Context, eventID, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error) {
	e, err := putEntrant(ctx, s.pool, eventID, entrantID, upd)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, eventID)
	return e, nil
}

func (s *EntrantStore) List(ctx context.Context, eventID string, q entities.Query) ([]entities.Entrant, error) {
	sql, args := buildSelect(eventID, q)
	return listEntrants(ctx, s.pool, sql, args...)
}

func (s *EntrantStore) Count(ctx context.Context, eventID string, p entities.Predicate) (int, error) {
	sql, args := buildCount(eventID, p)
	var n int64
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, mapError(fmt.Errorf("count entrants: %w", err))
	}
	return int(n), nil
}

func (s *EntrantStore) Query(ctx context.Context, eventID string, q entities.Query) (*live.Subscription[[]entities.Entrant], error) {
	changes, release, err := s.feed.Subscribe(ctx, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	return live.Watch(ctx, changes, release, func(ctx context.Context) ([]entities.Entrant, error) {
		return s.List(ctx, eventID, q)
	}), nil
}

func (s *EntrantStore) WatchCount(ctx context.Context, eventID string, p entities.Predicate) (*live.Subscription[int], error) {
	changes, release, err := s.feed.Subscribe(ctx, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	return live.Watch(ctx, changes, release, func(ctx context.Context) (int, error) {
		return s.Count(ctx, eventID, p)
	}), nil
}

func (s *EntrantStore) Roster(ctx context.Context, eventID string) (*entities.Roster, error) {
	var row rosterRow
	err := s.pool.QueryRow(ctx, "SELECT "+rosterColumns+" FROM rosters WHERE event_id = $1", eventID).Scan(row.targets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return &entities.Roster{EventID: eventID}, nil
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("get roster: %w", err))
	}
	r := rosterToDomain(row)
	return &r, nil
}

func (s *EntrantStore) Replacements(ctx context.Context, eventID string) ([]entities.Replacement, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT event_id, uid, reason, drawn_at FROM replacement_log WHERE event_id = $1 ORDER BY id", eventID)
	if err != nil {
		return nil, mapError(fmt.Errorf("list replacements: %w", err))
	}
	defer rows.Close()

	var out []entities.Replacement
	for rows.Next() {
		var r entities.Replacement
		if err := rows.Scan(&r.EventID, &r.UID, &r.Reason, &r.DrawnAt); err != nil {
			return nil, mapError(fmt.Errorf("scan replacement: %w", err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("list replacements: %w", err))
	}
	return out, nil
}

func (s *EntrantStore) ListExpiredInvitations(ctx context.Context, limit int) ([]entities.Entrant, error) {
	sql := "SELECT " + entrantColumns + ` FROM entrants
		WHERE status = 'pending' AND selected AND invitation_expiry < now()
		ORDER BY invitation_expiry
		LIMIT $1`
	return listEntrants(ctx, s.pool, sql, limit)
}

// WithTx runs fn in one SERIALIZABLE transaction. The change feed is
// notified only after a commit that wrote something.
func (s *EntrantStore) WithTx(ctx context.Context, eventID string, fn func(tx output.EntrantTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapError(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
	}()

	etx := &entrantTx{q: tx, eventID: eventID}
	if err := tx.QueryRow(ctx, "SELECT now()").Scan(&etx.now); err != nil {
		return mapError(fmt.Errorf("read clock: %w", err))
	}

	if err := fn(etx); err != nil {
		return mapError(err)
	}
	if !etx.dirty {
		return nil
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}

	s.publish(ctx, eventID)
	return nil
}

func getEntrant(ctx context.Context, q querier, eventID, entrantID string, lock bool) (*entities.Entrant, error) {
	sql := "SELECT " + entrantColumns + " FROM entrants WHERE event_id = $1 AND id = $2"
	if lock {
		sql += " FOR UPDATE"
	}
	var row entrantRow
	err := q.QueryRow(ctx, sql, eventID, entrantID).Scan(row.targets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntrantNotFound
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("get entrant: %w", err))
	}
	e := entrantToDomain(row)
	return &e, nil
}

// putEntrant applies upd with a single UPDATE so the IfStatus condition and
// the write are atomic.
func putEntrant(ctx context.Context, q querier, eventID, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error) {
	sql, args := buildUpdate(eventID, entrantID, upd)
	var row entrantRow
	err := q.QueryRow(ctx, sql, args...).Scan(row.targets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row matched: either the record is missing or the condition failed.
		if _, getErr := getEntrant(ctx, q, eventID, entrantID, false); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("update entrant: %w", err))
	}
	e := entrantToDomain(row)
	return &e, nil
}

func listEntrants(ctx context.Context, q querier, sql string, args ...any) ([]entities.Entrant, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(fmt.Errorf("list entrants: %w", err))
	}
	defer rows.Close()

	out := []entities.Entrant{}
	for rows.Next() {
		var row entrantRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, mapError(fmt.Errorf("scan entrant: %w", err))
		}
		out = append(out, entrantToDomain(row))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("list entrants: %w", err))
	}
	return out, nil
}
