package mutation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

// OperationsCollection holds saga log records.
const OperationsCollection docstore.CollectionPath = "operations"

type logStore interface {
	Set(ctx context.Context, path docstore.Path, value any) error
	Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
}

// DocLog is an OpLog kept in the document backend.
type DocLog struct {
	docs logStore
	now  func() time.Time
}

// NewDocLog creates a DocLog over docs.
func NewDocLog(docs logStore) *DocLog {
	return &DocLog{
		docs: docs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Begin writes a new pending record and returns its id.
func (l *DocLog) Begin(ctx context.Context, op domain.Operation) (string, error) {
	id := uuid.NewString()
	now := l.now()

	op.Status = domain.OperationPending
	op.StartedAt = now
	op.UpdatedAt = now
	if op.Steps == nil {
		op.Steps = []string{}
	}

	if err := l.docs.Set(ctx, OperationsCollection.Doc(id), op); err != nil {
		return "", fmt.Errorf("oplog.Begin: %w", err)
	}
	return id, nil
}

// StepDone appends step to the record's completed steps.
func (l *DocLog) StepDone(ctx context.Context, id, step string) error {
	err := l.docs.Update(ctx, OperationsCollection.Doc(id), docstore.Fields{
		"steps":     docstore.ArrayUnion(step),
		"updatedAt": l.now(),
	})
	if err != nil {
		return fmt.Errorf("oplog.StepDone: %w", err)
	}
	return nil
}

// Finish stores the final status of the record.
func (l *DocLog) Finish(ctx context.Context, id string, status domain.OperationStatus, cause error) error {
	fields := docstore.Fields{
		"status":    status,
		"updatedAt": l.now(),
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if err := l.docs.Update(ctx, OperationsCollection.Doc(id), fields); err != nil {
		return fmt.Errorf("oplog.Finish: %w", err)
	}
	return nil
}

// Pending returns the records still marked pending, oldest first.
func (l *DocLog) Pending(ctx context.Context) ([]domain.Operation, error) {
	docs, err := l.docs.Query(ctx, OperationsCollection, docstore.Where("status", string(domain.OperationPending)))
	if err != nil {
		return nil, fmt.Errorf("oplog.Pending: %w", err)
	}

	ops := make([]domain.Operation, 0, len(docs))
	for _, d := range docs {
		var op domain.Operation
		if err := d.DataTo(&op); err != nil {
			return nil, fmt.Errorf("oplog.Pending: %w", err)
		}
		op.ID = d.ID()
		ops = append(ops, op)
	}
	return ops, nil
}
