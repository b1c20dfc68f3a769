package mutation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/domain"
)

// Step is one remote write of a Saga. Compensate undoes Do and may be nil for
// a step that cannot be undone; such a step should be the last one.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// OpLog persists saga progress so an interrupted saga can be recovered.
type OpLog interface {
	Begin(ctx context.Context, op domain.Operation) (string, error)
	StepDone(ctx context.Context, id, step string) error
	Finish(ctx context.Context, id string, status domain.OperationStatus, cause error) error
	Pending(ctx context.Context) ([]domain.Operation, error)
}

// Saga is an ordered list of steps executed with reverse-order compensation
// on failure.
type Saga struct {
	kind    string
	subject string
	payload map[string]string
	steps   []Step
	oplog   OpLog
	log     *slog.Logger
}

// NewSaga creates an empty saga of the given kind acting on subject.
func NewSaga(logger *slog.Logger, kind, subject string) *Saga {
	return &Saga{
		kind:    kind,
		subject: subject,
		log:     logger.With("saga", kind, "subject", subject),
	}
}

// WithLog persists the saga through l.
func (s *Saga) WithLog(l OpLog) *Saga {
	s.oplog = l
	return s
}

// WithPayload stores recovery data alongside the log record.
func (s *Saga) WithPayload(p map[string]string) *Saga {
	s.payload = p
	return s
}

// Step appends a step.
func (s *Saga) Step(name string, do, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, Step{Name: name, Do: do, Compensate: compensate})
	return s
}

// Run executes the steps in order. When a step fails after others completed,
// those are compensated in reverse order and a *domain.CascadeError is
// returned. A failing first step returns its error unchanged.
func (s *Saga) Run(ctx context.Context) error {
	var opID string
	if s.oplog != nil {
		id, err := s.oplog.Begin(ctx, domain.Operation{
			Kind:    s.kind,
			Subject: s.subject,
			Status:  domain.OperationPending,
			Steps:   []string{},
			Payload: s.payload,
		})
		if err != nil {
			return domain.RemoteWriteFailed("saga.begin", err)
		}
		opID = id
	}

	completed := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			return s.fail(ctx, opID, completed, step.Name, err)
		}
		completed = append(completed, step)
		s.stepDone(ctx, opID, step.Name)
	}

	s.finish(ctx, opID, domain.OperationCommitted, nil)
	return nil
}

func (s *Saga) fail(ctx context.Context, opID string, completed []Step, failed string, cause error) error {
	s.log.WarnContext(ctx, "saga step failed",
		slog.String("step", failed),
		slog.Int("completed", len(completed)),
		slog.String("error", cause.Error()),
	)

	if len(completed) == 0 {
		s.finish(ctx, opID, domain.OperationCompensated, cause)
		return cause
	}

	cerr := &domain.CascadeError{
		Operation:  s.kind,
		FailedStep: failed,
		Err:        cause,
	}
	cctx := context.WithoutCancel(ctx)
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		cerr.Completed = append([]string{step.Name}, cerr.Completed...)
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(cctx); err != nil {
			if cerr.CompensationErrors == nil {
				cerr.CompensationErrors = make(map[string]error)
			}
			cerr.CompensationErrors[step.Name] = err
			s.log.ErrorContext(ctx, "saga compensation failed",
				slog.String("step", step.Name),
				slog.String("error", err.Error()),
			)
		}
	}

	status := domain.OperationCompensated
	if !cerr.Consistent() {
		status = domain.OperationFailed
	}
	s.finish(ctx, opID, status, cerr)
	return cerr
}

func (s *Saga) stepDone(ctx context.Context, opID, step string) {
	if s.oplog == nil {
		return
	}
	if err := s.oplog.StepDone(ctx, opID, step); err != nil {
		s.log.WarnContext(ctx, "record saga step",
			slog.String("step", step),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Saga) finish(ctx context.Context, opID string, status domain.OperationStatus, cause error) {
	if s.oplog == nil {
		return
	}
	// The outcome is recorded even when the caller's context is already done.
	if err := s.oplog.Finish(context.WithoutCancel(ctx), opID, status, cause); err != nil {
		s.log.WarnContext(ctx, "record saga outcome",
			slog.String("status", status.String()),
			slog.String("error", err.Error()),
		)
	}
}

// IgnoreNotFound returns nil for errors that mean the target is already gone.
func IgnoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
