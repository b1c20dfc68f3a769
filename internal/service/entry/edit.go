package entry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// EditEntry rewrites the content of an entry authored by userID. The write
// is rejected with domain.ErrConflict when the stored version is not the one
// the caller read.
func (s *Service) EditEntry(ctx context.Context, input EditEntryInput, userID string) (*domain.Entry, error) {
	var e domain.Entry
	err := s.ctrl.Run(ctx, mutation.Op{Name: "entry.edit", Key: entryKey(input.ID)}, func(ctx context.Context) error {
		if err := input.Validate(); err != nil {
			return err
		}

		path := docstore.Entries.Doc(input.ID)
		now := s.now()

		err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			doc, err := tx.Get(ctx, path)
			if err != nil {
				return err
			}
			current, err := s.decode(ctx, doc)
			if err != nil {
				return err
			}
			if !current.Author.IsAuthoredBy(userID) {
				return fmt.Errorf("entry %s: %w", input.ID, domain.ErrPermissionDenied)
			}
			if current.Version != input.Version {
				return fmt.Errorf("entry %s: version %d, have %d: %w",
					input.ID, current.Version, input.Version, domain.ErrConflict)
			}

			e = current
			e.Title = strings.TrimSpace(input.Title)
			e.Text = input.Text
			e.ImageURL = input.ImageURL
			e.UpdatedAt = &now
			e.Version = current.Version + 1

			return tx.Update(ctx, path, docstore.Fields{
				"title":    e.Title,
				"text":     e.Text,
				"imageURL": e.ImageURL,
				"updated":  now,
			})
		})
		if err != nil {
			return domain.RemoteWriteFailed("entry.EditEntry", err)
		}

		profile, err := s.summaryProfile(ctx, e)
		if err != nil {
			s.log.WarnContext(ctx, "resolve entry author", slog.String("error", err.Error()))
		}
		s.prompts.UpsertEntry(e.PromptID, e.Summary(profile))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "entry edited",
		slog.String("entry_id", e.ID),
		slog.Int64("version", e.Version),
	)
	return &e, nil
}

// summaryProfile reuses the cached author profile of the summary when there is one.
func (s *Service) summaryProfile(ctx context.Context, e domain.Entry) (*domain.User, error) {
	if _, summary, ok := s.prompts.FindEntry(e.ID); ok && summary.Profile != nil {
		return summary.Profile, nil
	}
	return s.profiles.Lookup(ctx, e.Author)
}
