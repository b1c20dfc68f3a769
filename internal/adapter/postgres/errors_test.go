package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/promptboard/internal/domain"
)

const testPath = "entries/P1T0"

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if err := MapError(nil, testPath); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	err := MapError(fmt.Errorf("scan: %w", pgx.ErrNoRows), testPath)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), testPath) {
		t.Errorf("expected path in message, got %q", err.Error())
	}
}

func TestMapError_PgCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want error
	}{
		{"23505", domain.ErrAlreadyExists},
		{"23514", domain.ErrValidation},
		{"22P02", domain.ErrValidation},
		{"40001", domain.ErrConflict},
		{"40P01", domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			err := MapError(&pgconn.PgError{Code: tt.code}, testPath)
			if !errors.Is(err, tt.want) {
				t.Fatalf("code %s: expected %v, got %v", tt.code, tt.want, err)
			}
		})
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	for _, cause := range []error{context.DeadlineExceeded, context.Canceled} {
		err := MapError(cause, testPath)
		if !errors.Is(err, cause) {
			t.Errorf("expected %v to pass through, got %v", cause, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			t.Errorf("%v must not map to a domain error", cause)
		}
	}
}

func TestMapError_UnknownError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := MapError(cause, testPath)
	if !errors.Is(err, cause) {
		t.Fatalf("expected original error to be wrapped, got %v", err)
	}

	unknownPg := MapError(&pgconn.PgError{Code: "99999"}, testPath)
	var pgErr *pgconn.PgError
	if !errors.As(unknownPg, &pgErr) {
		t.Fatalf("expected PgError to be preserved, got %v", unknownPg)
	}
}

func TestMapError_ContentionKeepsServerError(t *testing.T) {
	t.Parallel()

	err := MapError(&pgconn.PgError{Code: "40001"}, testPath)

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "40001" {
		t.Fatalf("expected server error in chain, got %v", err)
	}
	if !isContention(err) {
		t.Fatal("expected contention to be detected")
	}
	if isContention(MapError(&pgconn.PgError{Code: "23505"}, testPath)) {
		t.Fatal("unique violation is not contention")
	}
}
