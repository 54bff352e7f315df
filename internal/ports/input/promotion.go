package input

import (
	"context"

	"luckyspot/internal/domain/entities"
)

type PromotionUseCase interface {
	Promote(ctx context.Context, eventID, reason string) (*entities.Promotion, error)
	RunLottery(ctx context.Context, eventID string, winners int) (*entities.LotteryResult, error)
	SetCapacity(ctx context.Context, eventID string, capacity int) error
	Roster(ctx context.Context, eventID string) (*entities.Roster, error)
	Replacements(ctx context.Context, eventID string) ([]entities.Replacement, error)
}
