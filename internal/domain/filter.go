package domain

import "strings"

// Filter selects which entrants a list view shows.
type Filter int

const (
	FilterSelected Filter = iota
	FilterPending
	FilterAccepted
	FilterDeclined
	FilterConfirmed
	FilterCancelled
	FilterAll
)

// Filters lists every filter in the order the organizer panel offers them.
var Filters = []Filter{
	FilterSelected,
	FilterPending,
	FilterAccepted,
	FilterDeclined,
	FilterConfirmed,
	FilterCancelled,
	FilterAll,
}

var filterLabels = map[Filter]string{
	FilterSelected:  "selected",
	FilterPending:   "pending",
	FilterAccepted:  "accepted",
	FilterDeclined:  "declined",
	FilterConfirmed: "confirmed",
	FilterCancelled: "cancelled",
	FilterAll:       "all",
}

// String returns the lowercase label used in custom IDs, query strings and
// i18n keys.
func (f Filter) String() string {
	if l, ok := filterLabels[f]; ok {
		return l
	}
	return "unknown"
}

func (f Filter) Valid() bool {
	_, ok := filterLabels[f]
	return ok
}

// ParseFilter maps a user-facing label to a Filter. Matching ignores case and
// surrounding spaces. An empty label is the default view (Selected); an
// unknown label falls back to All with ok=false.
func ParseFilter(label string) (f Filter, ok bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return FilterSelected, true
	}
	for candidate, l := range filterLabels {
		if l == label {
			return candidate, true
		}
	}
	return FilterAll, false
}
