// Package mutation runs store operations: it owns the loading flag, serializes
// writes to the same record and logs or reports the outcome. Multi-step writes
// go through a Saga.
package mutation

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/promptboard/pkg/ctxutil"
)

// State is the lifecycle state of a single store operation.
type State string

const (
	StatePending   State = "pending"
	StateCommitted State = "committed"
	StateFailed    State = "failed"
)

// Op names a store operation. Operations sharing a non-empty Key run one at a time.
type Op struct {
	Name string
	Key  string
}

// Observer is notified of every state transition.
type Observer func(op Op, state State)

// Reporter receives every failed operation.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver installs a state observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLocks makes the Controller take its per-key locks from l, so operations
// of different stores on the same record run one at a time.
func WithLocks(l *Locks) Option {
	return func(c *Controller) { c.locks = l }
}

// WithReporter routes failures to r in addition to the log.
func WithReporter(r Reporter) Option {
	return func(c *Controller) { c.reporter = r }
}

// Controller drives store operations through Pending to Committed or Failed.
type Controller struct {
	log      *slog.Logger
	inFlight atomic.Int64
	locks    *Locks
	observer Observer
	reporter Reporter
}

// NewController creates a Controller. logger is usually already scoped to the
// owning store.
func NewController(logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		log:   logger,
		locks: NewLocks(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsLoading reports whether any operation is pending.
func (c *Controller) IsLoading() bool {
	return c.inFlight.Load() > 0
}

// Run executes fn as operation op. The loading flag is raised before fn starts
// and cleared on every exit path. The error of fn is returned unchanged.
func (c *Controller) Run(ctx context.Context, op Op, fn func(ctx context.Context) error) error {
	opID, ok := ctxutil.OperationIDFromCtx(ctx)
	if !ok {
		opID = uuid.NewString()
		ctx = ctxutil.WithOperationID(ctx, opID)
	}

	c.inFlight.Add(1)
	c.notify(op, StatePending)
	start := time.Now()

	err := c.run(ctx, op, fn)

	c.inFlight.Add(-1)

	attrs := []any{
		slog.String("op", op.Name),
		slog.String("op_id", opID),
		slog.Duration("duration", time.Since(start)),
	}
	if op.Key != "" {
		attrs = append(attrs, slog.String("key", op.Key))
	}

	if err != nil {
		c.notify(op, StateFailed)
		c.log.ErrorContext(ctx, "operation failed",
			append(attrs, slog.String("state", string(StateFailed)), slog.String("error", err.Error()))...)
		if c.reporter != nil {
			c.reporter.Report(ctx, err)
		}
		return err
	}

	c.notify(op, StateCommitted)
	c.log.DebugContext(ctx, "operation committed",
		append(attrs, slog.String("state", string(StateCommitted)))...)
	return nil
}

func (c *Controller) run(ctx context.Context, op Op, fn func(ctx context.Context) error) error {
	if op.Key != "" {
		unlock, err := c.locks.lock(ctx, op.Key)
		if err != nil {
			return err
		}
		defer unlock()
	}
	return fn(ctx)
}

func (c *Controller) notify(op Op, state State) {
	if c.observer != nil {
		c.observer(op, state)
	}
}
