package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")

	// ErrPermissionDenied is returned when the acting user is not the author
	// of the record it tries to edit or delete.
	ErrPermissionDenied = errors.New("permission denied")

	ErrRemoteWrite    = errors.New("remote write failed")
	ErrRemoteRead     = errors.New("remote read failed")
	ErrPartialCascade = errors.New("partial cascade failure")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// RemoteKind tells whether a failed gateway call was a read or a write.
type RemoteKind string

const (
	RemoteKindRead  RemoteKind = "read"
	RemoteKindWrite RemoteKind = "write"
)

// RemoteError wraps a failed gateway call. It matches both the kind sentinel
// (ErrRemoteRead / ErrRemoteWrite) and the underlying cause with errors.Is.
type RemoteError struct {
	Op   string
	Kind RemoteKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	kind := ErrRemoteWrite
	if e.Kind == RemoteKindRead {
		kind = ErrRemoteRead
	}
	return []error{kind, e.Err}
}

// RemoteWriteFailed classifies err as a failed remote write unless it already
// carries a more specific domain meaning.
func RemoteWriteFailed(op string, err error) error {
	return classify(op, RemoteKindWrite, err)
}

// RemoteReadFailed classifies err as a failed remote read unless it already
// carries a more specific domain meaning.
func RemoteReadFailed(op string, err error) error {
	return classify(op, RemoteKindRead, err)
}

func classify(op string, kind RemoteKind, err error) error {
	if err == nil {
		return nil
	}
	var re *RemoteError
	var ce *CascadeError
	switch {
	case errors.As(err, &re), errors.As(err, &ce):
		return err
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden):
		return fmt.Errorf("%s: %w", op, err)
	}
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// CascadeError reports a multi-step write that failed part way. Completed
// steps were compensated in reverse order; CompensationErrors lists the
// compensations that themselves failed and left remote state partial.
type CascadeError struct {
	Operation          string
	Completed          []string
	FailedStep         string
	Err                error
	CompensationErrors map[string]error
}

func (e *CascadeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: step %q failed after [%s]: %v",
		e.Operation, e.FailedStep, strings.Join(e.Completed, ", "), e.Err)
	if len(e.CompensationErrors) > 0 {
		fmt.Fprintf(&b, " (%d compensations failed)", len(e.CompensationErrors))
	}
	return b.String()
}

func (e *CascadeError) Unwrap() []error { return []error{ErrPartialCascade, e.Err} }

// Consistent reports whether every completed step was compensated.
func (e *CascadeError) Consistent() bool { return len(e.CompensationErrors) == 0 }

// IsRetryable tells callers whether offering a retry makes sense. Permission,
// validation, duplicate and not-found failures are final; transient remote failures and
// version conflicts are not.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrNotFound):
		return false
	case errors.Is(err, ErrRemoteWrite),
		errors.Is(err, ErrRemoteRead),
		errors.Is(err, ErrPartialCascade),
		errors.Is(err, ErrConflict):
		return true
	}
	return false
}
