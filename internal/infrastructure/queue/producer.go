package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"luckyspot/internal/ports/output"
	"luckyspot/pkg/logger"
)

var _ output.PromotionQueue = (*Producer)(nil)

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) EnqueuePromotion(ctx context.Context, eventID, reason string) error {
	values := messageValues(Message{
		EventID: eventID,
		Reason:  reason,
		TraceID: logger.TraceID(ctx),
	}, 1)

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue promotion (event=%s): %w", eventID, err)
	}

	slog.InfoContext(ctx, "replacement draw queued", "event_id", eventID, "message_id", id, "stream", p.stream)
	return nil
}
