package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
)

const entrantColumns = `event_id, id, uid, name, email, status, selected,
	selection_timestamp, confirmation_timestamp, invitation_expiry, cancellation_timestamp,
	cancellation_reason, created_at, updated_at`

const rosterColumns = `event_id, capacity, waitlist, selected, cancelled, lottery_run_at, version`

type entrantRow struct {
	EventID               string
	ID                    string
	UID                   string
	Name                  string
	Email                 string
	Status                string
	Selected              bool
	SelectionTimestamp    pgtype.Timestamptz
	ConfirmationTimestamp pgtype.Timestamptz
	InvitationExpiry      pgtype.Timestamptz
	CancellationTimestamp pgtype.Timestamptz
	CancellationReason    pgtype.Text
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

// targets lists scan destinations in entrantColumns order.
func (r *entrantRow) targets() []any {
	return []any{
		&r.EventID, &r.ID, &r.UID, &r.Name, &r.Email, &r.Status, &r.Selected,
		&r.SelectionTimestamp, &r.ConfirmationTimestamp, &r.InvitationExpiry, &r.CancellationTimestamp,
		&r.CancellationReason, &r.CreatedAt, &r.UpdatedAt,
	}
}

type rosterRow struct {
	EventID      string
	Capacity     int32
	Waitlist     []string
	Selected     []string
	Cancelled    []string
	LotteryRunAt pgtype.Timestamptz
	Version      int64
}

func (r *rosterRow) targets() []any {
	return []any{&r.EventID, &r.Capacity, &r.Waitlist, &r.Selected, &r.Cancelled, &r.LotteryRunAt, &r.Version}
}

// pgtypeTimestamptzToTime returns t.Time when Valid, else zero time.
func pgtypeTimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

// pgtypeTimestamptzToPtr returns nil for NULL.
func pgtypeTimestamptzToPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func entrantToDomain(r entrantRow) entities.Entrant {
	return entities.Entrant{
		ID:                    r.ID,
		EventID:               r.EventID,
		UID:                   r.UID,
		Name:                  r.Name,
		Email:                 r.Email,
		Status:                domain.Status(r.Status),
		Selected:              r.Selected,
		SelectionTimestamp:    pgtypeTimestamptzToPtr(r.SelectionTimestamp),
		ConfirmationTimestamp: pgtypeTimestamptzToPtr(r.ConfirmationTimestamp),
		InvitationExpiry:      pgtypeTimestamptzToPtr(r.InvitationExpiry),
		CancellationTimestamp: pgtypeTimestamptzToPtr(r.CancellationTimestamp),
		CancellationReason:    r.CancellationReason.String,
		CreatedAt:             pgtypeTimestamptzToTime(r.CreatedAt),
		UpdatedAt:             pgtypeTimestamptzToTime(r.UpdatedAt),
	}
}

func rosterToDomain(r rosterRow) entities.Roster {
	return entities.Roster{
		EventID:      r.EventID,
		Capacity:     int(r.Capacity),
		Waitlist:     r.Waitlist,
		Selected:     r.Selected,
		Cancelled:    r.Cancelled,
		LotteryRunAt: pgtypeTimestamptzToPtr(r.LotteryRunAt),
		Version:      r.Version,
	}
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
