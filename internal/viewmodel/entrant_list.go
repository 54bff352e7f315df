// Package viewmodel holds presentation state for the organizer's entrant
// list. It owns the live subscriptions behind the list and its count badge.
package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/live"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
	"luckyspot/pkg/logger"
)

// ReplacementReason is logged for draws chained to a cancellation.
const ReplacementReason = "Replacement for cancelled entrant"

// Deps are the services an EntrantList drives. Retry is optional.
type Deps struct {
	Query      input.QueryUseCase
	Entrants   input.EntrantUseCase
	Promotions input.PromotionUseCase
	Retry      output.PromotionQueue
	T          output.T
	Locale     string
}

// CancelOutcome reports both steps of a cancel request. PromoteErr never
// undoes a successful cancellation.
type CancelOutcome struct {
	Entrant    *entities.Entrant
	Err        error
	Promotion  *entities.Promotion
	PromoteErr error
	Queued     bool
}

type PromotionOutcome struct {
	Promotion *entities.Promotion
	Err       error
	Queued    bool
}

// EntrantList is the view-model of one event's entrant list.
//
// Entrants, CountLabel, Loading and Toast are the observable outputs. At most
// one list subscription and one count subscription are open at a time;
// updates from a replaced subscription are dropped.
type EntrantList struct {
	Entrants   *live.Value[[]entities.Entrant]
	CountLabel *live.Value[string]
	Loading    *live.Value[bool]
	Toast      *live.Value[string]

	deps    Deps
	eventID string
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	filter domain.Filter
	gen    uint64
	data   *live.Subscription[[]entities.Entrant]
	count  *live.Subscription[int]
	closed bool
}

// New opens the list for eventID with the initial filter.
func New(ctx context.Context, deps Deps, eventID string, initial domain.Filter) *EntrantList {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(eventID),
		Component: "luckyspot.viewmodel.entrant_list",
	})
	ctx, cancel := context.WithCancel(ctx)
	vm := &EntrantList{
		Entrants:   live.NewValue[[]entities.Entrant](nil),
		CountLabel: live.NewValue(""),
		Loading:    live.NewValue(true),
		Toast:      live.NewValue(""),
		deps:       deps,
		eventID:    eventID,
		ctx:        ctx,
		cancel:     cancel,
		filter:     initial,
	}

	vm.mu.Lock()
	vm.resubscribeLocked()
	vm.mu.Unlock()
	return vm
}

func (vm *EntrantList) EventID() string { return vm.eventID }

func (vm *EntrantList) Filter() domain.Filter {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.filter
}

// SetFilter switches the list to f. Selecting the current filter does
// nothing.
func (vm *EntrantList) SetFilter(f domain.Filter) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed || f == vm.filter {
		return
	}
	vm.filter = f
	vm.resubscribeLocked()
}

// SelectFilter switches the list to the filter named by label.
func (vm *EntrantList) SelectFilter(label string) {
	f, _ := domain.ParseFilter(label)
	vm.SetFilter(f)
}

// resubscribeLocked replaces both subscriptions. Callers hold vm.mu.
func (vm *EntrantList) resubscribeLocked() {
	vm.gen++
	vm.closeSubsLocked()
	vm.Loading.Set(true)
	gen := vm.gen

	data, err := vm.deps.Query.Watch(vm.ctx, vm.eventID, vm.filter)
	if err != nil {
		slog.ErrorContext(vm.ctx, "opening entrant list failed", "filter", vm.filter.String(), "error", err)
		vm.loadFailedLocked()
	} else {
		vm.data = data
		go vm.pumpEntrants(gen, data)
	}

	count, ok, err := vm.deps.Query.WatchCount(vm.ctx, vm.eventID, vm.filter)
	switch {
	case !ok:
		vm.CountLabel.Set("")
	case err != nil:
		slog.ErrorContext(vm.ctx, "opening entrant count failed", "filter", vm.filter.String(), "error", err)
		vm.CountLabel.Set("")
		vm.loadFailedLocked()
	default:
		vm.count = count
		go vm.pumpCount(gen, vm.filter, count)
	}
}

func (vm *EntrantList) closeSubsLocked() {
	if vm.data != nil {
		vm.data.Close()
		vm.data = nil
	}
	if vm.count != nil {
		vm.count.Close()
		vm.count = nil
	}
}

func (vm *EntrantList) loadFailedLocked() {
	vm.Loading.Set(false)
	vm.Toast.Set(vm.t("toast.load_failed", nil))
}

func (vm *EntrantList) pumpEntrants(gen uint64, sub *live.Subscription[[]entities.Entrant]) {
	for u := range sub.Updates() {
		vm.mu.Lock()
		if vm.closed || vm.gen != gen {
			vm.mu.Unlock()
			return
		}
		if u.Err != nil {
			slog.ErrorContext(vm.ctx, "entrant list update failed", "error", u.Err)
			vm.loadFailedLocked()
		} else {
			vm.Entrants.Set(u.Value)
			vm.Loading.Set(false)
		}
		vm.mu.Unlock()
	}
}

func (vm *EntrantList) pumpCount(gen uint64, f domain.Filter, sub *live.Subscription[int]) {
	key := "badge." + f.String()
	for u := range sub.Updates() {
		vm.mu.Lock()
		if vm.closed || vm.gen != gen {
			vm.mu.Unlock()
			return
		}
		if u.Err != nil {
			slog.ErrorContext(vm.ctx, "entrant count update failed", "error", u.Err)
			vm.loadFailedLocked()
		} else {
			vm.CountLabel.Set(vm.t(key, map[string]any{"Count": u.Value}))
		}
		vm.mu.Unlock()
	}
}

// Cancel cancels a pending entrant and, when alsoPromote is set, draws a
// replacement afterwards. It returns immediately; the outcome is delivered
// on the returned channel and summarized on Toast.
func (vm *EntrantList) Cancel(entrantID, reason string, alsoPromote bool) <-chan CancelOutcome {
	out := make(chan CancelOutcome, 1)
	go func() {
		defer close(out)
		out <- vm.runCancel(entrantID, reason, alsoPromote)
	}()
	return out
}

func (vm *EntrantList) runCancel(entrantID, reason string, alsoPromote bool) CancelOutcome {
	// In-flight writes outlive Close; only their toasts are dropped.
	ctx := context.WithoutCancel(vm.ctx)

	var res CancelOutcome
	res.Entrant, res.Err = vm.deps.Entrants.Cancel(ctx, vm.eventID, entrantID, reason)
	if res.Err != nil {
		vm.toast(cancelFailureKey(res.Err), nil)
		return res
	}
	if !alsoPromote {
		vm.toast("toast.cancel.success", nil)
		return res
	}

	res.Promotion, res.PromoteErr = vm.deps.Promotions.Promote(ctx, vm.eventID, ReplacementReason)
	switch {
	case res.PromoteErr == nil:
		vm.toast("toast.cancel.promoted", map[string]any{"Name": promotedName(res.Promotion)})
	case errors.Is(res.PromoteErr, domain.ErrNoWaitlistParticipant):
		vm.toast("toast.cancel.pool_empty", nil)
	case errors.Is(res.PromoteErr, domain.ErrCapacityFull):
		vm.toast("toast.cancel.capacity_full", nil)
	default:
		res.Queued = vm.enqueue(ctx, ReplacementReason)
		if res.Queued {
			vm.toast("toast.cancel.promote_queued", nil)
		} else {
			vm.toast("toast.cancel.promote_failed", nil)
		}
	}
	return res
}

// RequestPromotion draws one replacement from the waiting list.
func (vm *EntrantList) RequestPromotion() <-chan PromotionOutcome {
	out := make(chan PromotionOutcome, 1)
	go func() {
		defer close(out)
		out <- vm.runPromotion()
	}()
	return out
}

func (vm *EntrantList) runPromotion() PromotionOutcome {
	ctx := context.WithoutCancel(vm.ctx)

	var res PromotionOutcome
	res.Promotion, res.Err = vm.deps.Promotions.Promote(ctx, vm.eventID, "")
	switch {
	case res.Err == nil:
		vm.toast("toast.promote.success", map[string]any{"Name": promotedName(res.Promotion)})
	case errors.Is(res.Err, domain.ErrNoWaitlistParticipant):
		vm.toast("toast.promote.empty", nil)
	case errors.Is(res.Err, domain.ErrCapacityFull):
		vm.toast("toast.promote.capacity_full", nil)
	default:
		res.Queued = vm.enqueue(ctx, "")
		if res.Queued {
			vm.toast("toast.promote.queued", nil)
		} else {
			vm.toast("toast.promote.failed", nil)
		}
	}
	return res
}

func (vm *EntrantList) enqueue(ctx context.Context, reason string) bool {
	if vm.deps.Retry == nil {
		return false
	}
	if err := vm.deps.Retry.EnqueuePromotion(ctx, vm.eventID, reason); err != nil {
		slog.ErrorContext(ctx, "queueing replacement draw failed", "error", err)
		return false
	}
	return true
}

// Close releases both subscriptions. Nothing is emitted afterwards.
func (vm *EntrantList) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	vm.gen++
	vm.closeSubsLocked()
	vm.cancel()
	vm.mu.Unlock()

	vm.Entrants.Close()
	vm.CountLabel.Close()
	vm.Loading.Close()
	vm.Toast.Close()
}

func (vm *EntrantList) toast(key string, data map[string]any) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return
	}
	vm.Toast.Set(vm.t(key, data))
}

func (vm *EntrantList) t(key string, data map[string]any) string {
	return vm.deps.T.T(vm.deps.Locale, key, data)
}

func cancelFailureKey(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotPending):
		return "toast.cancel.not_pending"
	case errors.Is(err, domain.ErrNotFound):
		return "toast.cancel.not_found"
	}
	return "toast.cancel.failed"
}

func promotedName(p *entities.Promotion) string {
	if p == nil {
		return ""
	}
	if p.Entrant != nil {
		return p.Entrant.DisplayName()
	}
	return p.UID
}
