// Package memstore is an in-process EntrantStore. Transactions are
// optimistic: each works on a private snapshot of one event and commits only
// if no other commit touched that event in the meantime.
package memstore

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
	"luckyspot/internal/ports/output"
)

var _ output.EntrantStore = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	feed   output.ChangeFeed
	events map[string]*eventData
}

type eventData struct {
	entrants     map[string]entities.Entrant
	roster       entities.Roster
	replacements []entities.Replacement
	version      int64
}

func (d *eventData) clone() *eventData {
	return &eventData{
		entrants:     maps.Clone(d.entrants),
		roster:       d.roster.Clone(),
		replacements: slices.Clone(d.replacements),
		version:      d.version,
	}
}

type Option func(*Store)

// WithClock replaces time.Now as the store clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(feed output.ChangeFeed, opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		feed:   feed,
		events: make(map[string]*eventData),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// event returns eventID's data, creating it empty. Callers hold s.mu.
func (s *Store) event(eventID string) *eventData {
	ev, ok := s.events[eventID]
	if !ok {
		ev = &eventData{
			entrants: make(map[string]entities.Entrant),
			roster:   entities.Roster{EventID: eventID},
		}
		s.events[eventID] = ev
	}
	return ev
}

func (s *Store) publish(ctx context.Context, eventID string) {
	if err := s.feed.Publish(context.WithoutCancel(ctx), eventID); err != nil {
		slog.WarnContext(ctx, "change notification failed", "event_id", eventID, "error", err)
	}
}

func (s *Store) Get(_ context.Context, eventID, entrantID string) (*entities.Entrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.event(eventID).entrants[entrantID]
	if !ok {
		return nil, domain.ErrEntrantNotFound
	}
	return &e, nil
}

func (s *Store) Put(ctx context.Context, eventID, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error) {
	s.mu.Lock()
	ev := s.event(eventID)
	e, err := putEntrant(ev, entrantID, upd, s.now())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ev.version++
	s.mu.Unlock()

	s.publish(ctx, eventID)
	return e, nil
}

func putEntrant(ev *eventData, entrantID string, upd entities.EntrantUpdate, now time.Time) (*entities.Entrant, error) {
	e, ok := ev.entrants[entrantID]
	if !ok {
		return nil, domain.ErrEntrantNotFound
	}
	if upd.IfStatus != nil && e.Status != *upd.IfStatus {
		return nil, domain.ErrConflict
	}
	prev := e.Status
	upd.Apply(&e, now)
	if prev.Terminal() && e.Status != prev {
		return nil, domain.ErrInvalidRecord
	}
	if err := checkRecord(e); err != nil {
		return nil, err
	}
	ev.entrants[entrantID] = e
	return &e, nil
}

// checkRecord holds the rules the entrants table enforces with CHECK
// constraints.
func checkRecord(e entities.Entrant) error {
	if e.Selected && e.SelectionTimestamp == nil {
		return domain.ErrInvalidRecord
	}
	return nil
}

func (s *Store) List(_ context.Context, eventID string, q entities.Query) ([]entities.Entrant, error) {
	s.mu.Lock()
	records := slices.Collect(maps.Values(s.event(eventID).entrants))
	s.mu.Unlock()
	return q.Apply(records), nil
}

func (s *Store) Count(_ context.Context, eventID string, p entities.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.event(eventID).entrants {
		if p.Match(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Query(ctx context.Context, eventID string, q entities.Query) (*live.Subscription[[]entities.Entrant], error) {
	changes, release, err := s.feed.Subscribe(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return live.Watch(ctx, changes, release, func(ctx context.Context) ([]entities.Entrant, error) {
		return s.List(ctx, eventID, q)
	}), nil
}

func (s *Store) WatchCount(ctx context.Context, eventID string, p entities.Predicate) (*live.Subscription[int], error) {
	changes, release, err := s.feed.Subscribe(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return live.Watch(ctx, changes, release, func(ctx context.Context) (int, error) {
		return s.Count(ctx, eventID, p)
	}), nil
}

func (s *Store) Roster(_ context.Context, eventID string) (*entities.Roster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.event(eventID).roster.Clone()
	return &r, nil
}

func (s *Store) Replacements(_ context.Context, eventID string) ([]entities.Replacement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.event(eventID).replacements), nil
}

func (s *Store) ListExpiredInvitations(_ context.Context, limit int) ([]entities.Entrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []entities.Entrant
	for _, ev := range s.events {
		for _, e := range ev.entrants {
			if e.Status != domain.StatusPending || !e.Selected || e.InvitationExpiry == nil {
				continue
			}
			if e.InvitationExpiry.Before(now) {
				out = append(out, e)
			}
		}
	}
	slices.SortFunc(out, func(a, b entities.Entrant) int {
		return a.InvitationExpiry.Compare(*b.InvitationExpiry)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) WithTx(ctx context.Context, eventID string, fn func(tx output.EntrantTx) error) error {
	s.mu.Lock()
	snap := s.event(eventID).clone()
	now := s.now()
	s.mu.Unlock()

	base := snap.version
	tx := &memTx{eventID: eventID, now: now, data: snap}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	s.mu.Lock()
	if s.event(eventID).version != base {
		s.mu.Unlock()
		return domain.ErrConflict
	}
	snap.version = base + 1
	s.events[eventID] = snap
	s.mu.Unlock()

	s.publish(ctx, eventID)
	return nil
}

type memTx struct {
	eventID string
	now     time.Time
	data    *eventData
	dirty   bool
}

func (t *memTx) Now() time.Time { return t.now }

func (t *memTx) Get(_ context.Context, entrantID string) (*entities.Entrant, error) {
	e, ok := t.data.entrants[entrantID]
	if !ok {
		return nil, domain.ErrEntrantNotFound
	}
	return &e, nil
}

func (t *memTx) FindByUID(_ context.Context, uid string) (*entities.Entrant, error) {
	for _, e := range t.data.entrants {
		if e.UID == uid {
			return &e, nil
		}
	}
	return nil, domain.ErrEntrantNotFound
}

func (t *memTx) Create(ctx context.Context, e *entities.Entrant) error {
	if _, ok := t.data.entrants[e.ID]; ok {
		return domain.ErrEntrantExists
	}
	if _, err := t.FindByUID(ctx, e.UID); err == nil {
		return domain.ErrEntrantExists
	}
	if err := checkRecord(*e); err != nil {
		return err
	}
	e.EventID = t.eventID
	e.CreatedAt = t.now
	e.UpdatedAt = t.now
	t.data.entrants[e.ID] = *e
	t.dirty = true
	return nil
}

func (t *memTx) Put(_ context.Context, entrantID string, upd entities.EntrantUpdate) (*entities.Entrant, error) {
	e, err := putEntrant(t.data, entrantID, upd, t.now)
	if err != nil {
		return nil, err
	}
	t.dirty = true
	return e, nil
}

func (t *memTx) Roster(_ context.Context) (*entities.Roster, error) {
	r := t.data.roster.Clone()
	return &r, nil
}

func (t *memTx) SaveRoster(_ context.Context, r *entities.Roster) error {
	saved := r.Clone()
	saved.EventID = t.eventID
	saved.Version = t.data.roster.Version + 1
	t.data.roster = saved
	t.dirty = true
	return nil
}

func (t *memTx) AppendReplacement(_ context.Context, r entities.Replacement) error {
	r.EventID = t.eventID
	t.data.replacements = append(t.data.replacements, r)
	t.dirty = true
	return nil
}
