package entry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// Payload keys of entry sagas.
const (
	payloadEntryID  = "entryId"
	payloadPromptID = "promptId"
	payloadImage    = "image"
	payloadAuthor   = "authorId"
)

// DeleteEntry removes an entry authored by userID together with its prompt
// link, likes, shares and image. A failing step undoes the earlier ones; the
// image goes last since its removal cannot be undone. The image path is
// derived from the entry id, so a blob uploaded for the entry is removed even
// when the document no longer references it.
func (s *Service) DeleteEntry(ctx context.Context, entryID, userID string) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "entry.delete", Key: entryKey(entryID)}, func(ctx context.Context) error {
		if entryID == "" {
			return domain.NewValidationError("entry_id", "required")
		}

		e, doc, err := s.readEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if !e.Author.IsAuthoredBy(userID) {
			return fmt.Errorf("entry %s: %w", entryID, domain.ErrPermissionDenied)
		}

		payload := map[string]string{
			payloadEntryID:  e.ID,
			payloadPromptID: e.PromptID,
			payloadImage:    e.ImagePath(),
		}

		c := &cascade{svc: s, entry: e, snapshot: doc.Data}
		err = s.saga(domain.OperationEntryDelete, e.ID).WithPayload(payload).
			Step("unlink prompt", c.unlinkPrompt, c.relinkPrompt).
			Step("delete likes", c.deleteLikes, c.restoreLikes).
			Step("delete shares", c.deleteShares, c.restoreShares).
			Step("delete entry", c.deleteEntry, c.restoreEntry).
			Step("delete image", c.deleteImage, nil).
			Run(ctx)
		if err != nil {
			return err
		}

		s.prompts.RemoveEntry(e.PromptID, e.ID)
		s.log.InfoContext(ctx, "entry deleted",
			slog.String("entry_id", e.ID),
			slog.String("prompt_id", e.PromptID),
			slog.Int("likes", len(c.likes)),
			slog.Int("shares", len(c.shares)),
		)
		return nil
	})
}

// cascade holds the state captured while deleting an entry so every step
// can be compensated.
type cascade struct {
	svc      *Service
	entry    domain.Entry
	snapshot json.RawMessage
	likes    []domain.Like
	shares   []domain.Share
}

func (c *cascade) unlinkPrompt(ctx context.Context) error {
	err := c.svc.docs.Update(ctx, docstore.Prompts.Doc(c.entry.PromptID), docstore.Fields{
		"entries": docstore.ArrayRemove(docstore.EntryRef(c.entry.ID)),
	})
	return domain.RemoteWriteFailed("entry.unlink", mutation.IgnoreNotFound(err))
}

func (c *cascade) relinkPrompt(ctx context.Context) error {
	return mutation.IgnoreNotFound(c.svc.docs.Update(ctx, docstore.Prompts.Doc(c.entry.PromptID), docstore.Fields{
		"entries": docstore.ArrayUnion(docstore.EntryRef(c.entry.ID)),
	}))
}

func (c *cascade) deleteLikes(ctx context.Context) error {
	likes, err := c.svc.engagement.DeleteEntryLikes(ctx, c.entry.ID)
	if err != nil {
		return err
	}
	c.likes = likes
	return nil
}

func (c *cascade) restoreLikes(ctx context.Context) error {
	return c.svc.engagement.RestoreLikes(ctx, c.likes)
}

func (c *cascade) deleteShares(ctx context.Context) error {
	shares, err := c.svc.engagement.DeleteEntryShares(ctx, c.entry.ID)
	if err != nil {
		return err
	}
	c.shares = shares
	return nil
}

func (c *cascade) restoreShares(ctx context.Context) error {
	return c.svc.engagement.RestoreShares(ctx, c.shares)
}

func (c *cascade) deleteEntry(ctx context.Context) error {
	return domain.RemoteWriteFailed("entry.delete", c.svc.docs.Delete(ctx, docstore.Entries.Doc(c.entry.ID)))
}

func (c *cascade) restoreEntry(ctx context.Context) error {
	return c.svc.docs.Set(ctx, docstore.Entries.Doc(c.entry.ID), c.snapshot)
}

func (c *cascade) deleteImage(ctx context.Context) error {
	err := mutation.IgnoreNotFound(c.svc.blobs.Delete(ctx, c.entry.ImagePath()))
	return domain.RemoteWriteFailed("entry.deleteImage", err)
}
