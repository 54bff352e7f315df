package entities

import (
	"sort"

	"luckyspot/internal/domain"
)

// Predicate is a conjunction of optional equality tests. The zero value
// matches every record.
type Predicate struct {
	Selected *bool
	Status   *domain.Status
}

func (p Predicate) Match(e Entrant) bool {
	if p.Selected != nil && e.Selected != *p.Selected {
		return false
	}
	if p.Status != nil && e.Status != *p.Status {
		return false
	}
	return true
}

// Query is a predicate plus a total order: OrderBy descending with unset
// values last, ties broken by UID descending.
type Query struct {
	Where   Predicate
	OrderBy TimestampField
	Limit   int
	Offset  int
}

// Less reports whether a sorts before b under q's order.
func (q Query) Less(a, b Entrant) bool {
	ta, tb := a.Timestamp(q.OrderBy), b.Timestamp(q.OrderBy)
	switch {
	case ta != nil && tb == nil:
		return true
	case ta == nil && tb != nil:
		return false
	case ta != nil && tb != nil && !ta.Equal(*tb):
		return ta.After(*tb)
	}
	return a.UID > b.UID
}

// Apply filters, orders and pages records in memory.
func (q Query) Apply(records []Entrant) []Entrant {
	out := make([]Entrant, 0, len(records))
	for _, e := range records {
		if q.Where.Match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return q.Less(out[i], out[j]) })

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []Entrant{}
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}
