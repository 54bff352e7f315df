package domain

// Status is the lifecycle status of an entrant record.
type Status string

// Entrant statuses.
const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every status in declaration order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusDeclined, StatusConfirmed, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

func (s Status) String() string { return string(s) }
