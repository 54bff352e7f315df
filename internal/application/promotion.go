package application

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"go.opentelemetry.io/otel/attribute"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
	"luckyspot/pkg/logger"
)

var _ input.PromotionUseCase = (*PromotionService)(nil)

// DefaultDrawReason is logged for draws requested without a reason.
const DefaultDrawReason = "Manual draw by organizer"

// Picker returns a uniformly random index in [0, n).
type Picker func(n int) int

type PromotionService struct {
	store    output.EntrantStore
	notifier output.Notifier
	recorder output.Recorder
	cfg      Config
	pick     Picker
}

type PromotionOption func(*PromotionService)

// WithPicker replaces the random source used by draws.
func WithPicker(p Picker) PromotionOption {
	return func(s *PromotionService) { s.pick = p }
}

func NewPromotionService(store output.EntrantStore, notifier output.Notifier, recorder output.Recorder, cfg Config, opts ...PromotionOption) *PromotionService {
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	s := &PromotionService{
		store:    store,
		notifier: notifier,
		recorder: recorder,
		cfg:      cfg,
		pick:     rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PromotionService) ctx(ctx context.Context, eventID string) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(eventID),
		Component: "luckyspot.application.promotion",
	})
}

// Promote draws one entrant uniformly at random from the eligible pool and
// moves them to the selected cohort. An empty pool returns
// domain.ErrNoWaitlistParticipant and changes nothing.
func (s *PromotionService) Promote(ctx context.Context, eventID, reason string) (*entities.Promotion, error) {
	if reason == "" {
		reason = DefaultDrawReason
	}
	ctx = s.ctx(ctx, eventID)
	sc := logger.StartSpan(ctx, "waitlist.promote")
	defer sc.End()
	ctx = sc.Context()

	var promo *entities.Promotion
	err := runTx(ctx, s.store, s.recorder, s.cfg, "promote", eventID, func(tx output.EntrantTx) error {
		promo = nil
		roster, err := tx.Roster(ctx)
		if err != nil {
			return err
		}
		if roster.Full() {
			return domain.ErrCapacityFull
		}
		pool, err := eligible(ctx, tx, roster)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return domain.ErrNoWaitlistParticipant
		}

		uid := pool[s.pick(len(pool))]
		e, err := s.selectInTx(ctx, tx, roster, uid)
		if err != nil {
			return err
		}
		if err := tx.SaveRoster(ctx, roster); err != nil {
			return err
		}
		now := tx.Now()
		if err := tx.AppendReplacement(ctx, entities.Replacement{UID: uid, Reason: reason, DrawnAt: now}); err != nil {
			return err
		}
		promo = &entities.Promotion{EventID: eventID, UID: uid, Entrant: e, DrawnAt: now}
		return nil
	})
	s.recorder.Transition("promote", result(err))
	if err != nil {
		sc.RecordError(err)
		if errors.Is(err, domain.ErrNoWaitlistParticipant) {
			slog.InfoContext(ctx, "no eligible entrant to promote")
		} else {
			slog.WarnContext(ctx, "promotion failed", "error", err)
		}
		return nil, err
	}

	sc.SetAttributes(attribute.String("luckyspot.promoted_uid", promo.UID))
	slog.InfoContext(ctx, "entrant promoted from waiting list", "uid", promo.UID, "reason", reason)
	if promo.Entrant != nil {
		s.notify(ctx, *promo.Entrant)
	}
	return promo, nil
}

// RunLottery draws up to winners entrants at once and stamps the roster's
// lottery time.
func (s *PromotionService) RunLottery(ctx context.Context, eventID string, winners int) (*entities.LotteryResult, error) {
	if winners <= 0 {
		return nil, domain.ErrInvalidWinners
	}
	ctx = s.ctx(ctx, eventID)
	sc := logger.StartSpan(ctx, "waitlist.lottery")
	defer sc.End()
	ctx = sc.Context()

	var res *entities.LotteryResult
	err := runTx(ctx, s.store, s.recorder, s.cfg, "lottery", eventID, func(tx output.EntrantTx) error {
		res = nil
		roster, err := tx.Roster(ctx)
		if err != nil {
			return err
		}
		pool, err := eligible(ctx, tx, roster)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return domain.ErrNoWaitlistParticipant
		}
		n := min(winners, len(pool))
		if roster.Capacity > 0 {
			n = min(n, roster.Capacity-len(roster.Selected))
		}
		if n <= 0 {
			return domain.ErrCapacityFull
		}

		// Partial Fisher-Yates: the first n slots end up uniformly drawn.
		for i := 0; i < n; i++ {
			j := i + s.pick(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}

		now := tx.Now()
		out := &entities.LotteryResult{EventID: eventID, RemainingPool: len(pool) - n, RanAt: now}
		for _, uid := range pool[:n] {
			e, err := s.selectInTx(ctx, tx, roster, uid)
			if err != nil {
				return err
			}
			if e != nil {
				out.Winners = append(out.Winners, *e)
			}
		}
		roster.LotteryRunAt = &now
		if err := tx.SaveRoster(ctx, roster); err != nil {
			return err
		}
		res = out
		return nil
	})
	s.recorder.Transition("lottery", result(err))
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	slog.InfoContext(ctx, "lottery drawn", "winners", len(res.Winners), "remaining_pool", res.RemainingPool)
	for _, w := range res.Winners {
		s.notify(ctx, w)
	}
	return res, nil
}

func (s *PromotionService) SetCapacity(ctx context.Context, eventID string, capacity int) error {
	if capacity < 0 {
		return domain.ErrInvalidCapacity
	}
	ctx = s.ctx(ctx, eventID)
	err := runTx(ctx, s.store, s.recorder, s.cfg, "capacity", eventID, func(tx output.EntrantTx) error {
		roster, err := tx.Roster(ctx)
		if err != nil {
			return err
		}
		roster.Capacity = capacity
		return tx.SaveRoster(ctx, roster)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "capacity updated", "capacity", capacity)
	return nil
}

func (s *PromotionService) Roster(ctx context.Context, eventID string) (*entities.Roster, error) {
	return s.store.Roster(ctx, eventID)
}

func (s *PromotionService) Replacements(ctx context.Context, eventID string) ([]entities.Replacement, error) {
	return s.store.Replacements(ctx, eventID)
}

// selectInTx moves uid into the selected cohort of roster (saved by the
// caller) and marks its record selected. The record may be absent for uids
// that reached the roster by other means.
func (s *PromotionService) selectInTx(ctx context.Context, tx output.EntrantTx, roster *entities.Roster, uid string) (*entities.Entrant, error) {
	roster.Select(uid)
	e, err := tx.FindByUID(ctx, uid)
	if errors.Is(err, domain.ErrEntrantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx.Put(ctx, e.ID, entities.EntrantUpdate{
		Selected:      logger.Ptr(true),
		Stamp:         []entities.TimestampField{entities.FieldSelection},
		InvitationTTL: s.cfg.InvitationTTL,
		IfStatus:      logger.Ptr(domain.StatusPending),
	})
}

// eligible returns the roster pool minus uids whose record left pending.
func eligible(ctx context.Context, tx output.EntrantTx, roster *entities.Roster) ([]string, error) {
	var pool []string
	for _, uid := range roster.Pool() {
		e, err := tx.FindByUID(ctx, uid)
		switch {
		case errors.Is(err, domain.ErrEntrantNotFound):
			pool = append(pool, uid)
		case err != nil:
			return nil, err
		case e.Status == domain.StatusPending && !e.Selected:
			pool = append(pool, uid)
		}
	}
	return pool, nil
}

func (s *PromotionService) notify(ctx context.Context, e entities.Entrant) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifySelected(ctx, e); err != nil {
		slog.WarnContext(ctx, "selection notification failed", "uid", e.UID, "error", err)
	}
}
