package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"luckyspot/internal/domain"
	"luckyspot/internal/domain/entities"
	"luckyspot/internal/ports/input"
	"luckyspot/internal/ports/output"
	"luckyspot/pkg/logger"
)

var _ input.EntrantUseCase = (*EntrantService)(nil)

// ExpiredReason is the cancellation reason written by the expiry sweep.
const ExpiredReason = "invitation expired"

// expiredBatch caps one sweep.
const expiredBatch = 100

type EntrantService struct {
	store    output.EntrantStore
	recorder output.Recorder
	cfg      Config
}

func NewEntrantService(store output.EntrantStore, recorder output.Recorder, cfg Config) *EntrantService {
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	return &EntrantService{store: store, recorder: recorder, cfg: cfg}
}

func (s *EntrantService) ctx(ctx context.Context, eventID string) context.Context {
	return logger.WithLogFields(ctx, logger.LogFields{
		EventID:   logger.Ptr(eventID),
		Component: "luckyspot.application.entrant",
	})
}

// Join registers uid on eventID's waiting list.
func (s *EntrantService) Join(ctx context.Context, eventID, uid, name, email string) (*entities.Entrant, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, domain.ErrMissingUID
	}
	ctx = logger.WithLogFields(s.ctx(ctx, eventID), logger.LogFields{UID: logger.Ptr(uid)})

	var joined *entities.Entrant
	err := runTx(ctx, s.store, s.recorder, s.cfg, "join", eventID, func(tx output.EntrantTx) error {
		if _, err := tx.FindByUID(ctx, uid); err == nil {
			return domain.ErrEntrantExists
		} else if !errors.Is(err, domain.ErrEntrantNotFound) {
			return err
		}
		roster, err := tx.Roster(ctx)
		if err != nil {
			return err
		}

		e := &entities.Entrant{
			ID:     uuid.NewString(),
			UID:    uid,
			Name:   strings.TrimSpace(name),
			Email:  strings.TrimSpace(email),
			Status: domain.StatusPending,
		}
		if err := tx.Create(ctx, e); err != nil {
			return err
		}
		roster.Join(uid)
		if err := tx.SaveRoster(ctx, roster); err != nil {
			return err
		}
		joined = e
		return nil
	})
	s.recorder.Transition("join", result(err))
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "entrant joined waiting list", "entrant_id", joined.ID)
	return joined, nil
}

func (s *EntrantService) Get(ctx context.Context, eventID, entrantID string) (*entities.Entrant, error) {
	return s.store.Get(ctx, eventID, entrantID)
}

// Cancel cancels a pending entrant. The record and the roster change in one
// transaction; only a pending record may be cancelled.
func (s *EntrantService) Cancel(ctx context.Context, eventID, entrantID, reason string) (*entities.Entrant, error) {
	ctx = logger.WithLogFields(s.ctx(ctx, eventID), logger.LogFields{EntrantID: logger.Ptr(entrantID)})
	sc := logger.StartSpan(ctx, "entrant.cancel")
	defer sc.End()
	ctx = sc.Context()

	var cancelled *entities.Entrant
	err := runTx(ctx, s.store, s.recorder, s.cfg, "cancel", eventID, func(tx output.EntrantTx) error {
		e, err := cancelInTx(ctx, tx, entrantID, reason)
		cancelled = e
		return err
	})
	s.recorder.Transition("cancel", result(err))
	if err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "cancel refused", "error", err)
		return nil, err
	}
	slog.InfoContext(ctx, "entrant cancelled", "reason", reason)
	return cancelled, nil
}

func cancelInTx(ctx context.Context, tx output.EntrantTx, entrantID, reason string) (*entities.Entrant, error) {
	e, err := tx.Get(ctx, entrantID)
	if err != nil {
		return nil, err
	}
	if e.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	cancelled, err := tx.Put(ctx, entrantID, entities.EntrantUpdate{
		Status:             logger.Ptr(domain.StatusCancelled),
		Selected:           logger.Ptr(false),
		CancellationReason: &reason,
		Stamp:              []entities.TimestampField{entities.FieldCancellation},
		IfStatus:           logger.Ptr(domain.StatusPending),
	})
	if err != nil {
		return nil, err
	}

	roster, err := tx.Roster(ctx)
	if err != nil {
		return nil, err
	}
	roster.Cancel(e.UID)
	if err := tx.SaveRoster(ctx, roster); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// Respond records uid's answer to a pending invitation. A decline frees the
// seat for a replacement draw.
func (s *EntrantService) Respond(ctx context.Context, eventID, uid string, accept bool) (*entities.Entrant, error) {
	ctx = logger.WithLogFields(s.ctx(ctx, eventID), logger.LogFields{UID: logger.Ptr(uid)})

	next := domain.StatusDeclined
	if accept {
		next = domain.StatusAccepted
	}

	var answered *entities.Entrant
	err := runTx(ctx, s.store, s.recorder, s.cfg, "respond", eventID, func(tx output.EntrantTx) error {
		e, err := tx.FindByUID(ctx, uid)
		if err != nil {
			return err
		}
		if e.Status != domain.StatusPending || !e.Selected {
			return domain.ErrNotInvited
		}
		if e.InvitationExpiry != nil && tx.Now().After(*e.InvitationExpiry) {
			return domain.ErrInvitationExpired
		}

		updated, err := tx.Put(ctx, e.ID, entities.EntrantUpdate{
			Status:   &next,
			IfStatus: logger.Ptr(domain.StatusPending),
		})
		if err != nil {
			return err
		}
		if !accept {
			roster, err := tx.Roster(ctx)
			if err != nil {
				return err
			}
			roster.Decline(uid)
			if err := tx.SaveRoster(ctx, roster); err != nil {
				return err
			}
		}
		answered = updated
		return nil
	})
	s.recorder.Transition(string(next), result(err))
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "invitation answered", "status", next)
	return answered, nil
}

// Confirm finalizes an accepted entrant.
func (s *EntrantService) Confirm(ctx context.Context, eventID, entrantID string) (*entities.Entrant, error) {
	ctx = logger.WithLogFields(s.ctx(ctx, eventID), logger.LogFields{EntrantID: logger.Ptr(entrantID)})

	var confirmed *entities.Entrant
	err := runTx(ctx, s.store, s.recorder, s.cfg, "confirm", eventID, func(tx output.EntrantTx) error {
		e, err := tx.Get(ctx, entrantID)
		if err != nil {
			return err
		}
		if e.Status != domain.StatusAccepted {
			return domain.ErrNotAccepted
		}
		confirmed, err = tx.Put(ctx, entrantID, entities.EntrantUpdate{
			Status:   logger.Ptr(domain.StatusConfirmed),
			Stamp:    []entities.TimestampField{entities.FieldConfirmation},
			IfStatus: logger.Ptr(domain.StatusAccepted),
		})
		return err
	})
	s.recorder.Transition("confirm", result(err))
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "entrant confirmed")
	return confirmed, nil
}

// ExpireInvitations cancels selected entrants whose invitation lapsed without
// an answer. It returns the entrants it cancelled; per-entrant failures are
// joined into the error.
func (s *EntrantService) ExpireInvitations(ctx context.Context) ([]entities.Entrant, error) {
	candidates, err := s.store.ListExpiredInvitations(ctx, expiredBatch)
	if err != nil {
		return nil, fmt.Errorf("list expired invitations: %w", err)
	}

	var (
		expired []entities.Entrant
		errs    []error
	)
	for _, c := range candidates {
		ectx := logger.WithLogFields(s.ctx(ctx, c.EventID), logger.LogFields{EntrantID: logger.Ptr(c.ID)})

		var cancelled *entities.Entrant
		err := runTx(ectx, s.store, s.recorder, s.cfg, "expire", c.EventID, func(tx output.EntrantTx) error {
			cancelled = nil
			e, err := tx.Get(ectx, c.ID)
			if err != nil {
				return err
			}
			// Answered or already handled since the listing.
			if e.Status != domain.StatusPending || !e.Selected || e.InvitationExpiry == nil || !e.InvitationExpiry.Before(tx.Now()) {
				return nil
			}
			cancelled, err = cancelInTx(ectx, tx, c.ID, ExpiredReason)
			return err
		})
		s.recorder.Transition("expire", result(err))
		if err != nil {
			errs = append(errs, fmt.Errorf("expire %s/%s: %w", c.EventID, c.ID, err))
			continue
		}
		if cancelled != nil {
			slog.InfoContext(ectx, "invitation expired")
			expired = append(expired, *cancelled)
		}
	}
	return expired, errors.Join(errs...)
}
