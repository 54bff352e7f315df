package memstore_test

import (
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
)

type liveUpdate = live.Update[[]entities.Entrant]

func ptr[T any](v T) *T { return &v }

func uids(es []entities.Entrant) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.UID)
	}
	return out
}
