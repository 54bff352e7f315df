package application_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/gomega"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/infrastructure/memstore"
	"luckyspot/internal/ports/output"
)

const eventID = "evt-1"

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// clock is a settable store clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func at(minutes int) *time.Time {
	t := base.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func ptr[T any](v T) *T { return &v }

// seed writes records and a roster directly, bypassing the services.
func seed(store *memstore.Store, roster entities.Roster, records ...entities.Entrant) {
	ctx := context.Background()
	err := store.WithTx(ctx, eventID, func(tx output.EntrantTx) error {
		for i := range records {
			e := records[i]
			if e.ID == "" {
				e.ID = "id-" + e.UID
			}
			if e.Status == "" {
				e.Status = domain.StatusPending
			}
			if err := tx.Create(ctx, &e); err != nil {
				return err
			}
		}
		return tx.SaveRoster(ctx, &roster)
	})
	Expect(err).NotTo(HaveOccurred())
}

func uids(es []entities.Entrant) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.UID)
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	err      error
}

func (n *fakeNotifier) NotifySelected(_ context.Context, e entities.Entrant) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, e.UID)
	return n.err
}

func (n *fakeNotifier) UIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notified...)
}

// conflictingStore loses every transaction to a concurrent writer.
type conflictingStore struct {
	output.EntrantStore
	mu       sync.Mutex
	attempts int
}

func (s *conflictingStore) WithTx(context.Context, string, func(output.EntrantTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return domain.ErrConflict
}

type countingRecorder struct {
	mu        sync.Mutex
	conflicts int
	results   map[string]string
}

func (r *countingRecorder) Transition(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = make(map[string]string)
	}
	r.results[op] = result
}

func (r *countingRecorder) TxConflict(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *countingRecorder) Subscriptions(int) {}

type outputTx = output.EntrantTx
