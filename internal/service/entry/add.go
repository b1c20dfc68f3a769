package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// AddEntry creates an entry for the signed-in user and links it to its
// prompt. Either both writes land or neither does. A preset id that is
// already taken is rejected and the stored entry is left untouched.
func (s *Service) AddEntry(ctx context.Context, input AddEntryInput) (*domain.Entry, error) {
	id := input.ID
	if id == "" {
		id = s.NewEntryID(input.PromptID)
	}

	var e domain.Entry
	err := s.ctrl.Run(ctx, mutation.Op{Name: "entry.add", Key: entryKey(id)}, func(ctx context.Context) error {
		if err := input.Validate(); err != nil {
			return err
		}

		actor, err := s.actors.ResolveActor(ctx)
		if err != nil {
			return err
		}
		if actor.IsAnonymous() {
			return fmt.Errorf("entry.AddEntry: %w", domain.ErrUnauthorized)
		}

		if _, err := s.readPrompt(ctx, input.PromptID); err != nil {
			return err
		}

		e = domain.Entry{
			ID:        id,
			PromptID:  input.PromptID,
			Slug:      strings.TrimSpace(input.Slug),
			Title:     strings.TrimSpace(input.Title),
			Text:      input.Text,
			ImageURL:  input.ImageURL,
			Author:    actor.AuthorRef(),
			CreatedAt: s.now(),
			Version:   1,
		}
		entryPath := docstore.Entries.Doc(id)
		promptPath := docstore.Prompts.Doc(e.PromptID)
		ref := docstore.EntryRef(id)

		err = s.saga(domain.OperationEntryCreate, id).
			WithPayload(map[string]string{
				payloadEntryID:  id,
				payloadPromptID: e.PromptID,
				payloadAuthor:   e.Author.ID,
			}).
			Step("create entry",
				func(ctx context.Context) error {
					return domain.RemoteWriteFailed("entry.create", s.createEntry(ctx, entryPath, e))
				},
				func(ctx context.Context) error {
					return s.docs.Delete(ctx, entryPath)
				}).
			Step("link prompt",
				func(ctx context.Context) error {
					return domain.RemoteWriteFailed("entry.link", s.docs.Update(ctx, promptPath, docstore.Fields{
						"entries": docstore.ArrayUnion(ref),
					}))
				},
				func(ctx context.Context) error {
					return mutation.IgnoreNotFound(s.docs.Update(ctx, promptPath, docstore.Fields{
						"entries": docstore.ArrayRemove(ref),
					}))
				}).
			Run(ctx)
		if err != nil {
			return err
		}

		s.prompts.UpsertEntry(e.PromptID, e.Summary(actor.Profile))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "entry added",
		slog.String("entry_id", e.ID),
		slog.String("prompt_id", e.PromptID),
	)
	return &e, nil
}

// createEntry writes e only if its id is free. An id held by another author
// fails with domain.ErrPermissionDenied, one held by the same author with
// domain.ErrAlreadyExists.
func (s *Service) createEntry(ctx context.Context, path docstore.Path, e domain.Entry) error {
	return s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(ctx, path)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err == nil {
			current, err := s.decode(ctx, doc)
			if err != nil {
				return err
			}
			if !current.Author.IsAuthoredBy(e.Author.ID) {
				return fmt.Errorf("entry %s: %w", e.ID, domain.ErrPermissionDenied)
			}
			return fmt.Errorf("entry %s: %w", e.ID, domain.ErrAlreadyExists)
		}
		return tx.Set(ctx, path, e)
	})
}
