// Package worker runs the background jobs: deferred replacement draws read
// from the retry stream and the invitation expiry sweep.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"luckyspot/internal/domain"
	"luckyspot/internal/infrastructure/queue"
	"luckyspot/pkg/logger"
)

type Config struct {
	MaxAttempts int
}

type PromotionWorker struct {
	consumer Consumer
	promoter Promoter
	recorder QueueRecorder
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewPromotionWorker(consumer Consumer, promoter Promoter, recorder QueueRecorder, cfg Config) *PromotionWorker {
	if recorder == nil {
		recorder = nopQueueRecorder{}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &PromotionWorker{
		consumer:  consumer,
		promoter:  promoter,
		recorder:  recorder,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *PromotionWorker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "luckyspot.worker.promotion"})

	slog.InfoContext(ctx, "promotion worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "promotion worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
				case <-w.stopCh:
				}
			}
		}
	}
}

// Stop asks Run to return after the current batch and waits for it.
func (w *PromotionWorker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *PromotionWorker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}
	for _, msg := range messages {
		w.handle(ctx, msg)
	}
	return nil
}

func (w *PromotionWorker) handle(ctx context.Context, msg queue.Message) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(msg.EventID),
		MessageID: logger.Ptr(msg.ID),
	})
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.promotion")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(attribute.Int("luckyspot.attempt", msg.Attempt))

	err := w.processMessageSafe(ctx, msg)
	switch {
	case err == nil:
		w.ack(ctx, msg, "promoted")
	case drawSettled(err):
		slog.InfoContext(ctx, "replacement draw dropped", "reason", domain.Code(err))
		w.ack(ctx, msg, "dropped")
	default:
		sc.RecordError(err)
		w.handleFailedMessage(ctx, msg, err)
	}
}

func (w *PromotionWorker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	slog.InfoContext(ctx, "processing replacement draw", "attempt", msg.Attempt)
	_, err = w.promoter.Promote(ctx, msg.EventID, msg.Reason)
	return err
}

func (w *PromotionWorker) ack(ctx context.Context, msg queue.Message, result string) {
	if err := w.consumer.Ack(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "ack failed", "error", err)
		return
	}
	w.recorder.Queue(result)
}

func (w *PromotionWorker) handleFailedMessage(ctx context.Context, msg queue.Message, procErr error) {
	errMsg := procErr.Error()
	if msg.Attempt >= w.cfg.MaxAttempts {
		if err := w.consumer.SendDLQ(ctx, msg, errMsg); err != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", err)
			return
		}
		w.recorder.Queue("dead_lettered")
		return
	}
	if err := w.consumer.Requeue(ctx, msg, errMsg); err != nil {
		slog.ErrorContext(ctx, "failed to requeue", "error", err)
		return
	}
	w.recorder.Queue("requeued")
}
