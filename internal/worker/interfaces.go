package worker

import (
	"context"
	"errors"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/infrastructure/queue"
)

// Consumer abstracts the retry stream for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

type Promoter interface {
	Promote(ctx context.Context, eventID, reason string) (*entities.Promotion, error)
}

// drawSettled reports whether a failed draw is final: nothing is left to
// draw, so a retry cannot help.
func drawSettled(err error) bool {
	return errors.Is(err, domain.ErrNoWaitlistParticipant) || errors.Is(err, domain.ErrCapacityFull)
}

type Expirer interface {
	ExpireInvitations(ctx context.Context) ([]entities.Entrant, error)
}

// QueueRecorder counts retry-stream outcomes.
type QueueRecorder interface {
	Queue(result string)
}

type nopQueueRecorder struct{}

func (nopQueueRecorder) Queue(string) {}
