package entities

import (
	"time"

	"luckyspot/internal/domain"
)

// Entrant is one user's registration record for one event.
type Entrant struct {
	ID                    string
	EventID               string
	UID                   string
	Name                  string
	Email                 string
	Status                domain.Status
	Selected              bool
	SelectionTimestamp    *time.Time
	ConfirmationTimestamp *time.Time
	InvitationExpiry      *time.Time
	CancellationTimestamp *time.Time
	CancellationReason    string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// DisplayName prefers the entrant's name and falls back to the user id.
func (e Entrant) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.UID
}

// TimestampField names one of the store-stamped timestamps of an Entrant.
type TimestampField int

const (
	FieldSelection TimestampField = iota + 1
	FieldConfirmation
	FieldCancellation
)

func (f TimestampField) String() string {
	switch f {
	case FieldSelection:
		return "selection_timestamp"
	case FieldConfirmation:
		return "confirmation_timestamp"
	case FieldCancellation:
		return "cancellation_timestamp"
	}
	return ""
}

// Timestamp returns the value of f on e, nil when unset.
func (e Entrant) Timestamp(f TimestampField) *time.Time {
	switch f {
	case FieldSelection:
		return e.SelectionTimestamp
	case FieldConfirmation:
		return e.ConfirmationTimestamp
	case FieldCancellation:
		return e.CancellationTimestamp
	}
	return nil
}

// EntrantUpdate is a partial write. Nil fields are left untouched.
//
// Stamp lists timestamps the store sets to its own clock, and InvitationTTL
// (when positive) sets InvitationExpiry to store-now plus the TTL. Stamps and
// the expiry are set once: a field that already holds a value keeps it.
//
// IfStatus, when set, is checked atomically with the write; a mismatch fails
// with domain.ErrConflict.
type EntrantUpdate struct {
	Status             *domain.Status
	Selected           *bool
	CancellationReason *string
	Stamp              []TimestampField
	InvitationTTL      time.Duration
	IfStatus           *domain.Status
}

// Apply writes u onto e using now as the store clock. Callers check IfStatus.
func (u EntrantUpdate) Apply(e *Entrant, now time.Time) {
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.Selected != nil {
		e.Selected = *u.Selected
	}
	if u.CancellationReason != nil {
		e.CancellationReason = *u.CancellationReason
	}
	for _, f := range u.Stamp {
		t := now
		switch f {
		case FieldSelection:
			if e.SelectionTimestamp == nil {
				e.SelectionTimestamp = &t
			}
		case FieldConfirmation:
			if e.ConfirmationTimestamp == nil {
				e.ConfirmationTimestamp = &t
			}
		case FieldCancellation:
			if e.CancellationTimestamp == nil {
				e.CancellationTimestamp = &t
			}
		}
	}
	if u.InvitationTTL > 0 && e.InvitationExpiry == nil {
		exp := now.Add(u.InvitationTTL)
		e.InvitationExpiry = &exp
	}
	e.UpdatedAt = now
}

// Replacement is one replacement-log entry written by a draw.
type Replacement struct {
	EventID string
	UID     string
	Reason  string
	DrawnAt time.Time
}

// Promotion is the outcome of a successful replacement draw.
type Promotion struct {
	EventID string
	UID     string
	Entrant *Entrant
	DrawnAt time.Time
}

// LotteryResult is the outcome of a lottery run.
type LotteryResult struct {
	EventID       string
	Winners       []Entrant
	RemainingPool int
	RanAt         time.Time
}
