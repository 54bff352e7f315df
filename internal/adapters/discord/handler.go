package discord

import (
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
	"luckyspot/internal/viewmodel"
)

// HandlerDeps are the use cases behind the commands. Retry is optional.
type HandlerDeps struct {
	Entrants      input.EntrantUseCase
	Promotions    input.PromotionUseCase
	Query         input.QueryUseCase
	Retry         output.PromotionQueue
	T             output.T
	DefaultLocale string
}

// Handler handles Discord interactions using use cases.
type Handler struct {
	deps   HandlerDeps
	panels *panelRegistry
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		deps:   deps,
		panels: newPanelRegistry(),
	}
}

func (h *Handler) viewModelDeps(locale string) viewmodel.Deps {
	return viewmodel.Deps{
		Query:      h.deps.Query,
		Entrants:   h.deps.Entrants,
		Promotions: h.deps.Promotions,
		Retry:      h.deps.Retry,
		T:          h.deps.T,
		Locale:     locale,
	}
}

func (h *Handler) t(locale, key string, data map[string]any) string {
	return h.deps.T.T(locale, key, data)
}

// Close shuts every open panel.
func (h *Handler) Close() {
	h.panels.closeAll()
}
