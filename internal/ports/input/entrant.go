package input

import (
	"context"

	"luckyspot/internal/domain/entities"
)

type EntrantUseCase interface {
	Join(ctx context.Context, eventID, uid, name, email string) (*entities.Entrant, error)
	Get(ctx context.Context, eventID, entrantID string) (*entities.Entrant, error)
	Cancel(ctx context.Context, eventID, entrantID, reason string) (*entities.Entrant, error)
	Respond(ctx context.Context, eventID, uid string, accept bool) (*entities.Entrant, error)
	Confirm(ctx context.Context, eventID, entrantID string) (*entities.Entrant, error)
	ExpireInvitations(ctx context.Context) ([]entities.Entrant, error)
}
