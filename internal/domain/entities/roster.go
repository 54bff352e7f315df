package entities

import (
	"slices"
	"time"
)

// Roster holds the cohort membership of one event. Cohorts are uid lists with
// set semantics, kept in join order.
type Roster struct {
	EventID      string
	Capacity     int
	Waitlist     []string
	Selected     []string
	Cancelled    []string
	LotteryRunAt *time.Time
	Version      int64
}

// Pool returns the uids eligible for a draw: waitlisted, not selected, not
// cancelled.
func (r *Roster) Pool() []string {
	pool := make([]string, 0, len(r.Waitlist))
	for _, uid := range r.Waitlist {
		if slices.Contains(r.Selected, uid) || slices.Contains(r.Cancelled, uid) {
			continue
		}
		pool = append(pool, uid)
	}
	return pool
}

// Full reports whether the selected cohort has reached capacity. A zero
// capacity is unlimited.
func (r *Roster) Full() bool {
	return r.Capacity > 0 && len(r.Selected) >= r.Capacity
}

func (r *Roster) Join(uid string) {
	r.Waitlist = appendUnique(r.Waitlist, uid)
}

// Select moves uid from the waitlist to the selected cohort.
func (r *Roster) Select(uid string) {
	r.Waitlist = remove(r.Waitlist, uid)
	r.Selected = appendUnique(r.Selected, uid)
}

// Decline frees the seat held by uid.
func (r *Roster) Decline(uid string) {
	r.Selected = remove(r.Selected, uid)
}

// Cancel moves uid out of every active cohort into the cancelled cohort.
func (r *Roster) Cancel(uid string) {
	r.Waitlist = remove(r.Waitlist, uid)
	r.Selected = remove(r.Selected, uid)
	r.Cancelled = appendUnique(r.Cancelled, uid)
}

// Clone returns a deep copy of r.
func (r Roster) Clone() Roster {
	c := r
	c.Waitlist = slices.Clone(r.Waitlist)
	c.Selected = slices.Clone(r.Selected)
	c.Cancelled = slices.Clone(r.Cancelled)
	if r.LotteryRunAt != nil {
		t := *r.LotteryRunAt
		c.LotteryRunAt = &t
	}
	return c
}

func appendUnique(list []string, uid string) []string {
	if slices.Contains(list, uid) {
		return list
	}
	return append(list, uid)
}

func remove(list []string, uid string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == uid })
}
