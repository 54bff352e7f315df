package output

import "context"

// PromotionQueue defers a replacement draw that could not run inline.
type PromotionQueue interface {
	EnqueuePromotion(ctx context.Context, eventID, reason string) error
}
