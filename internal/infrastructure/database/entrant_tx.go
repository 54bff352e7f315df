package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/ports/output"
)

var _ output.EntrantTx = (*entrantTx)(nil)

type entrantTx struct {
	q       querier
	eventID string
	now     time.Time
	dirty   bool
}

func (t *entrantTx) Now() time.Time { return t.now }

func (t *entrantTx) Get(ctx context.Context, entrantID string) (*entities.Entrant, error) {
	return getEntrant(ctx, t.q, t.eventID, entrantID, true)
}

func (t *entrantTx) FindByUID(ctx context.Context, uid string) (*entities.Entrant, error) {
	var row entrantRow
	err := t.q.QueryRow(ctx,
		"SELECT "+entrantColumns+" FROM entrants WHERE event_id = $1 AND uid = $2", t.eventID, uid,
	).Scan(row.targets()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEntrantNotFound
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("find entrant by uid: %w", err))
	}
	e := entrantToDomain(row)
	return &e, nil
}

func (t *entrantTx) Create(ctx context.Context, e *entities.Entrant) error {
	var row entrantRow
	err := t.q.QueryRow(ctx,
		`INSERT INTO entrants (event_id, id, uid, name, email, status, selected)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+entrantColumns,
		t.eventID, e.ID, e.UID, e.Name, e.Email, string(e.Status), e.Selected,
	).Scan(row.targets()...)
	if err != nil {
		return mapError(fmt.Errorf("create entrant: %w", err))
	}
	*e = entrantToDomain(row)
	t.dirty = true
	return nil
}

func (t *entrantTx) Put(ctx context.Context, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error) {
	e, err := putEntrant(ctx, t.q, t.eventID, entrantID, upd)
	if err != nil {
		return nil, err
	}
	t.dirty = true
	return e, nil
}

// Roster locks the event's roster row, creating it on first use.
func (t *entrantTx) Roster(ctx context.Context) (*entities.Roster, error) {
	if _, err := t.q.Exec(ctx,
		"INSERT INTO rosters (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING", t.eventID,
	); err != nil {
		return nil, mapError(fmt.Errorf("ensure roster: %w", err))
	}
	var row rosterRow
	if err := t.q.QueryRow(ctx,
		"SELECT "+rosterColumns+" FROM rosters WHERE event_id = $1 FOR UPDATE", t.eventID,
	).Scan(row.targets()...); err != nil {
		return nil, mapError(fmt.Errorf("get roster: %w", err))
	}
	r := rosterToDomain(row)
	return &r, nil
}

func (t *entrantTx) SaveRoster(ctx context.Context, r *entities.Roster) error {
	if _, err := t.q.Exec(ctx,
		`UPDATE rosters
		SET capacity = $2, waitlist = $3, selected = $4, cancelled = $5, lottery_run_at = $6,
			version = version + 1, updated_at = now()
		WHERE event_id = $1`,
		t.eventID, int32(r.Capacity), nonNil(r.Waitlist), nonNil(r.Selected), nonNil(r.Cancelled), r.LotteryRunAt,
	); err != nil {
		return mapError(fmt.Errorf("save roster: %w", err))
	}
	t.dirty = true
	return nil
}

func (t *entrantTx) AppendReplacement(ctx context.Context, r entities.Replacement) error {
	if _, err := t.q.Exec(ctx,
		"INSERT INTO replacement_log (event_id, uid, reason, drawn_at) VALUES ($1, $2, $3, $4)",
		t.eventID, r.UID, r.Reason, r.DrawnAt,
	); err != nil {
		return mapError(fmt.Errorf("append replacement: %w", err))
	}
	t.dirty = true
	return nil
}
