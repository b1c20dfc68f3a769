package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/promptboard/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeInvalidText          = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// MapError converts pgx/pgconn errors to domain errors, labelled with the
// document path. context.DeadlineExceeded and context.Canceled pass through.
func MapError(err error, path string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("document %s: %w", path, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("document %s: %w", path, domain.ErrAlreadyExists)
		case codeCheckViolation, codeInvalidText:
			return fmt.Errorf("document %s: %w", path, domain.ErrValidation)
		case codeSerializationFailure, codeDeadlockDetected:
			// isContention needs the server error in the chain.
			return fmt.Errorf("document %s: %w: %w", path, domain.ErrConflict, err)
		}
	}

	return fmt.Errorf("document %s: %w", path, err)
}
