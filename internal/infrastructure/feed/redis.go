package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"luckyspot/internal/ports/output"
)

var _ output.ChangeFeed = (*Redis)(nil)

// Redis carries change signals over Redis pub/sub so live queries in one
// process see commits made by another.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Channel(eventID string) string {
	return r.prefix + eventID
}

func (r *Redis) Publish(ctx context.Context, eventID string) error {
	if err := r.client.Publish(ctx, r.Channel(eventID), "changed").Err(); err != nil {
		return fmt.Errorf("publish change (event=%s): %w", eventID, err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, eventID string) (<-chan struct{}, func(), error) {
	ps := r.client.Subscribe(ctx, r.Channel(eventID))
	// Receive blocks until the subscription is confirmed, so no publish made
	// after Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe changes (event=%s): %w", eventID, err)
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(done)
			if err := ps.Close(); err != nil {
				slog.Warn("closing change subscription failed", "event_id", eventID, "error", err)
			}
		})
	}
	return out, release, nil
}
