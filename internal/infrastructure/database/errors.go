package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"luckyspot/internal/domain"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
)

// mapError translates backend failures into domain error kinds. Domain
// errors and context errors pass through unchanged.
func mapError(err error) error {
	if err == nil || domain.Code(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case sqlStateUniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrEntrantExists, err)
		case sqlStateCheckViolation:
			return fmt.Errorf("%w: %w", domain.ErrInvalidRecord, err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrTransient, err)
}
