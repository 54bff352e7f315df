package domain

import "errors"

// Error is a domain error carrying a stable code. Codes double as i18n keys
// ("error.<code>") so adapters never switch on messages.
type Error struct {
	code string
	msg  string
	kind *Error
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable code of e.
func (e *Error) Code() string { return e.code }

// Unwrap exposes the error kind so errors.Is(err, ErrInvalidState) matches
// every invalid-state sentinel.
func (e *Error) Unwrap() error {
	if e.kind == nil {
		return nil
	}
	return e.kind
}

func newKind(code, msg string) *Error { return &Error{code: code, msg: msg} }

func newError(kind *Error, code, msg string) *Error {
	return &Error{code: code, msg: msg, kind: kind}
}

// Error kinds.
var (
	ErrNotFound     = newKind("not_found", "not found")
	ErrInvalidState = newKind("invalid_state", "invalid state")
	ErrConflict     = newKind("conflict", "concurrent modification")
	ErrTransient    = newKind("transient", "backend unavailable")
)

// Domain errors.
var (
	ErrEntrantNotFound       = newError(ErrNotFound, "entrant_not_found", "entrant not found")
	ErrNotPending            = newError(ErrInvalidState, "not_pending", "only pending entrants can be cancelled")
	ErrNotInvited            = newError(ErrInvalidState, "not_invited", "entrant has no pending invitation")
	ErrNotAccepted           = newError(ErrInvalidState, "not_accepted", "only accepted entrants can be confirmed")
	ErrInvitationExpired     = newError(ErrInvalidState, "invitation_expired", "invitation has expired")
	ErrEntrantExists         = newError(ErrInvalidState, "entrant_exists", "entrant already joined this event")
	ErrNoWaitlistParticipant = newError(ErrInvalidState, "no_waitlist_participant", "no eligible entrant on the waiting list")
	ErrCapacityFull          = newError(ErrInvalidState, "capacity_full", "event is at full capacity")
	ErrInvalidFilter         = newError(ErrInvalidState, "invalid_filter", "unknown entrant filter")
	ErrInvalidCapacity       = newError(ErrInvalidState, "invalid_capacity", "capacity must be zero or positive")
	ErrInvalidWinners        = newError(ErrInvalidState, "invalid_winners", "number of winners must be positive")
	ErrMissingUID            = newError(ErrInvalidState, "missing_uid", "entrant user id is required")
	ErrInvalidRecord         = newError(ErrInvalidState, "invalid_record", "entrant record breaks a lifecycle rule")
)

// Code returns the most specific domain code found in err's chain, or "" when
// err is not a domain error.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return ""
}
