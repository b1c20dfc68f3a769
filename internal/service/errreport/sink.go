// Package errreport keeps the errors surfaced by the stores so a UI layer can
// show the most recent one.
package errreport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/promptboard/pkg/ctxutil"
)

// DefaultCapacity is the number of reports kept by NewSink when capacity <= 0.
const DefaultCapacity = 20

// Report is one surfaced error.
type Report struct {
	Err         error
	OperationID string
	At          time.Time
}

// Sink is the shared error-reporting collaborator. It is safe for concurrent use.
type Sink struct {
	log *slog.Logger
	now func() time.Time

	mu      sync.RWMutex
	reports []Report
	cap     int
}

// NewSink creates a Sink keeping the last capacity reports.
func NewSink(logger *slog.Logger, capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{
		log: logger.With("service", "errreport"),
		now: func() time.Time { return time.Now().UTC() },
		cap: capacity,
	}
}

// Report records err. It never blocks on I/O and ignores nil.
func (s *Sink) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	opID, _ := ctxutil.OperationIDFromCtx(ctx)

	s.mu.Lock()
	s.reports = append(s.reports, Report{Err: err, OperationID: opID, At: s.now()})
	if len(s.reports) > s.cap {
		s.reports = s.reports[len(s.reports)-s.cap:]
	}
	s.mu.Unlock()

	s.log.ErrorContext(ctx, "error reported",
		slog.String("op_id", opID),
		slog.String("error", err.Error()),
	)
}

// Last returns the most recent report, if any.
func (s *Sink) Last() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.reports) == 0 {
		return Report{}, false
	}
	return s.reports[len(s.reports)-1], true
}

// Recent returns the kept reports, oldest first.
func (s *Sink) Recent() []Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Report, len(s.reports))
	copy(out, s.reports)
	return out
}

// Clear drops every kept report.
func (s *Sink) Clear() {
	s.mu.Lock()
	s.reports = nil
	s.mu.Unlock()
}
