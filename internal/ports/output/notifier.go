package output

import (
	"context"

	"luckyspot/internal/domain/entities"
)

// Notifier tells an entrant they were drawn. Delivery is best-effort.
type Notifier interface {
	NotifySelected(ctx context.Context, e entities.Entrant) error
}
