// Package feed implements output.ChangeFeed in-process and over Redis
// pub/sub.
package feed

import (
	"context"
	"sync"

	"luckyspot/internal/ports/output"
)

var _ output.ChangeFeed = (*Local)(nil)

// Local fans change signals out to subscribers of the same process. Signals
// coalesce: a subscriber that has not drained its channel gets one pending
// signal, not one per change.
type Local struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan struct{}
	nextID int
}

func NewLocal() *Local {
	return &Local{subs: make(map[string]map[int]chan struct{})}
}

func (l *Local) Publish(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ch := range l.subs[eventID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (l *Local) Subscribe(_ context.Context, eventID string) (<-chan struct{}, func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan struct{}, 1)
	id := l.nextID
	l.nextID++
	if l.subs[eventID] == nil {
		l.subs[eventID] = make(map[int]chan struct{})
	}
	l.subs[eventID][id] = ch

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs[eventID], id)
			if len(l.subs[eventID]) == 0 {
				delete(l.subs, eventID)
			}
			close(ch)
		})
	}
	return ch, release, nil
}

// Subscribers returns the number of live subscriptions for eventID.
func (l *Local) Subscribers(eventID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[eventID])
}
