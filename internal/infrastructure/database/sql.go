package database

import (
	"fmt"
	"strings"

	"luckyspot/internal/domain/entities"
)

// args collects positional parameters.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func whereClause(a *args, eventID string, p entities.Predicate) string {
	conds := []string{"event_id = " + a.add(eventID)}
	if p.Selected != nil {
		conds = append(conds, "selected = "+a.add(*p.Selected))
	}
	if p.Status != nil {
		conds = append(conds, "status = "+a.add(string(*p.Status)))
	}
	return strings.Join(conds, " AND ")
}

// uidOrder compares uids byte-wise whatever the database default collation.
const uidOrder = `uid COLLATE "C" DESC`

// buildSelect renders q. Unset order values sort last, ties break on uid.
func buildSelect(eventID string, q entities.Query) (string, []any) {
	var a args
	where := whereClause(&a, eventID, q.Where)

	order := q.OrderBy.String()
	if order == "" {
		order = entities.FieldSelection.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM entrants WHERE %s ORDER BY %s DESC NULLS LAST, %s", entrantColumns, where, order, uidOrder)
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + a.add(q.Limit))
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET " + a.add(q.Offset))
	}
	return b.String(), a
}

func buildCount(eventID string, p entities.Predicate) (string, []any) {
	var a args
	where := whereClause(&a, eventID, p)
	return "SELECT count(*) FROM entrants WHERE " + where, a
}

// buildUpdate renders upd as one conditional UPDATE. Stamps use COALESCE so
// a set timestamp is never overwritten, and now() so the database clock is
// the only clock.
func buildUpdate(eventID, entrantID string, upd entities.EntrantUpdate) (string, []any) {
	var a args
	where := "event_id = " + a.add(eventID) + " AND id = " + a.add(entrantID)

	sets := []string{"updated_at = now()"}
	if upd.Status != nil {
		sets = append(sets, "status = "+a.add(string(*upd.Status)))
	}
	if upd.Selected != nil {
		sets = append(sets, "selected = "+a.add(*upd.Selected))
	}
	if upd.CancellationReason != nil {
		sets = append(sets, "cancellation_reason = "+a.add(*upd.CancellationReason))
	}
	for _, f := range upd.Stamp {
		if col := f.String(); col != "" {
			sets = append(sets, fmt.Sprintf("%s = COALESCE(%s, now())", col, col))
		}
	}
	if upd.InvitationTTL > 0 {
		sets = append(sets, "invitation_expiry = COALESCE(invitation_expiry, now() + make_interval(secs => "+a.add(upd.InvitationTTL.Seconds())+"))")
	}
	if upd.IfStatus != nil {
		where += " AND status = " + a.add(string(*upd.IfStatus))
	}

	return fmt.Sprintf("UPDATE entrants SET %s WHERE %s RETURNING %s", strings.Join(sets, ", "), where, entrantColumns), a
}
