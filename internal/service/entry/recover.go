package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// RecoverPending resolves sagas left pending by an interrupted process.
// Unfinished creates are rolled back and unfinished deletes are rolled
// forward. It returns how many operations were resolved.
func (s *Service) RecoverPending(ctx context.Context) (int, error) {
	if s.oplog == nil {
		return 0, nil
	}

	ops, err := s.oplog.Pending(ctx)
	if err != nil {
		return 0, domain.RemoteReadFailed("entry.RecoverPending", err)
	}

	var (
		resolved int
		errs     []error
	)
	for _, op := range ops {
		var status domain.OperationStatus
		switch op.Kind {
		case domain.OperationEntryCreate:
			status, err = domain.OperationCompensated, s.rollbackCreate(ctx, op)
		case domain.OperationEntryDelete:
			status, err = domain.OperationCommitted, s.rollForwardDelete(ctx, op)
		default:
			s.log.WarnContext(ctx, "skip pending operation of unknown kind",
				slog.String("operation_id", op.ID),
				slog.String("kind", op.Kind),
			)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("operation %s (%s): %w", op.ID, op.Kind, err))
			continue
		}

		if err := s.oplog.Finish(ctx, op.ID, status, nil); err != nil {
			errs = append(errs, fmt.Errorf("operation %s: finish: %w", op.ID, err))
			continue
		}
		resolved++
		s.log.InfoContext(ctx, "pending operation recovered",
			slog.String("operation_id", op.ID),
			slog.String("kind", op.Kind),
			slog.String("subject", op.Subject),
			slog.String("status", status.String()),
		)
	}

	return resolved, errors.Join(errs...)
}

func (s *Service) rollbackCreate(ctx context.Context, op domain.Operation) error {
	entryID, promptID, err := payloadIDs(op)
	if err != nil {
		return err
	}

	// An entry stored under the id by someone else predates the interrupted
	// create and is not ours to remove.
	if author := op.Payload[payloadAuthor]; author != "" {
		e, _, err := s.readEntry(ctx, entryID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return err
		case !e.Author.IsAuthoredBy(author):
			s.log.WarnContext(ctx, "keep entry of another author",
				slog.String("entry_id", entryID),
				slog.String("operation_id", op.ID),
			)
			return nil
		}
	}

	err = mutation.IgnoreNotFound(s.docs.Update(ctx, docstore.Prompts.Doc(promptID), docstore.Fields{
		"entries": docstore.ArrayRemove(docstore.EntryRef(entryID)),
	}))
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, docstore.Entries.Doc(entryID)); err != nil {
		return err
	}

	s.prompts.RemoveEntry(promptID, entryID)
	return nil
}

func (s *Service) rollForwardDelete(ctx context.Context, op domain.Operation) error {
	entryID, promptID, err := payloadIDs(op)
	if err != nil {
		return err
	}

	err = mutation.IgnoreNotFound(s.docs.Update(ctx, docstore.Prompts.Doc(promptID), docstore.Fields{
		"entries": docstore.ArrayRemove(docstore.EntryRef(entryID)),
	}))
	if err != nil {
		return err
	}
	if _, err := s.engagement.DeleteEntryLikes(ctx, entryID); err != nil {
		return err
	}
	if _, err := s.engagement.DeleteEntryShares(ctx, entryID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, docstore.Entries.Doc(entryID)); err != nil {
		return err
	}
	image := op.Payload[payloadImage]
	if image == "" {
		image = domain.EntryImagePath(entryID)
	}
	if err := mutation.IgnoreNotFound(s.blobs.Delete(ctx, image)); err != nil {
		return err
	}

	s.prompts.RemoveEntry(promptID, entryID)
	return nil
}

func payloadIDs(op domain.Operation) (string, string, error) {
	entryID, promptID := op.Payload[payloadEntryID], op.Payload[payloadPromptID]
	if entryID == "" || promptID == "" {
		return "", "", fmt.Errorf("incomplete payload: %w", domain.ErrValidation)
	}
	return entryID, promptID, nil
}
