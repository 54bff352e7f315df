package output

import "context"

// ChangeFeed carries "event changed" signals from writers to live queries.
type ChangeFeed interface {
	Publish(ctx context.Context, eventID string) error
	// Subscribe returns a signal channel for eventID and a release func that
	// stops delivery and closes the channel.
	Subscribe(ctx context.Context, eventID string) (<-chan struct{}, func(), error)
}
