// Package live provides cancellable snapshot subscriptions and observable
// values shared by the stores and the view-model.
package live

import (
	"context"
	"sync"
)

// Update is one snapshot delivered by a Subscription. Err is set when the
// fetch failed; the subscription keeps watching after an error.
type Update[T any] struct {
	Value T
	Err   error
}

// FetchFunc reads the current snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Subscription delivers an initial snapshot, then a fresh snapshot after every
// change signal, until Close. Each snapshot is fetched after the signal that
// triggered it, so delivery never goes back in commit order.
type Subscription[T any] struct {
	updates chan Update[T]
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Watch starts a subscription. changes carries one signal per committed
// change (signals may coalesce); release is called once when the
// subscription stops.
func Watch[T any](ctx context.Context, changes <-chan struct{}, release func(), fetch FetchFunc[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		updates: make(chan Update[T]),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, changes, release, fetch)
	return s
}

func (s *Subscription[T]) run(ctx context.Context, changes <-chan struct{}, release func(), fetch FetchFunc[T]) {
	defer close(s.done)
	defer close(s.updates)
	if release != nil {
		defer release()
	}

	if !s.deliver(ctx, fetch) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if !s.deliver(ctx, fetch) {
				return
			}
		}
	}
}

func (s *Subscription[T]) deliver(ctx context.Context, fetch FetchFunc[T]) bool {
	v, err := fetch(ctx)
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.updates <- Update[T]{Value: v, Err: err}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Updates returns the delivery channel. It is closed once the subscription
// has stopped.
func (s *Subscription[T]) Updates() <-chan Update[T] { return s.updates }

// Close stops the subscription and waits for its goroutine to exit. No value
// is delivered after Close returns. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed when the subscription has stopped.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }
