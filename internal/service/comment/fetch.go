package comment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// FetchComments loads the top-level comments of the entry with slug and
// replaces the cached comments.
func (s *Service) FetchComments(ctx context.Context, slug string) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "comment.fetch"}, func(ctx context.Context) error {
		entryID, err := s.entryIDBySlug(ctx, slug)
		if err != nil {
			return err
		}

		all, err := s.load(ctx, entryID)
		if err != nil {
			return err
		}

		top := make([]domain.Comment, 0, len(all))
		for _, c := range all {
			if !c.IsReply() {
				top = append(top, c)
			}
		}
		if err := s.attachProfiles(ctx, top); err != nil {
			return err
		}

		s.comments.Set(top)
		s.log.DebugContext(ctx, "comments fetched",
			slog.String("entry_id", entryID),
			slog.Int("count", len(top)),
		)
		return nil
	})
}

// FetchReplies loads the replies to parentID on the entry with slug and
// replaces the cached replies.
func (s *Service) FetchReplies(ctx context.Context, slug, parentID string) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "comment.fetch_replies"}, func(ctx context.Context) error {
		if parentID == "" {
			return domain.NewValidationError("parent_id", "required")
		}

		entryID, err := s.entryIDBySlug(ctx, slug)
		if err != nil {
			return err
		}

		replies, err := s.load(ctx, entryID, docstore.Where("parentId", parentID))
		if err != nil {
			return err
		}
		if err := s.attachProfiles(ctx, replies); err != nil {
			return err
		}

		s.replies.Set(replies)
		return nil
	})
}

func (s *Service) entryIDBySlug(ctx context.Context, slug string) (string, error) {
	if slug == "" {
		return "", domain.NewValidationError("slug", "required")
	}
	docs, err := s.docs.Query(ctx, docstore.Entries, docstore.Where("slug", slug))
	if err != nil {
		return "", domain.RemoteReadFailed("comment.entryBySlug", err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("entry %q: %w", slug, domain.ErrNotFound)
	}
	return docs[0].ID(), nil
}

func (s *Service) load(ctx context.Context, entryID string, filters ...docstore.Filter) ([]domain.Comment, error) {
	docs, err := s.docs.Query(ctx, docstore.Comments(entryID), filters...)
	if err != nil {
		return nil, domain.RemoteReadFailed("comment.load", err)
	}

	out := make([]domain.Comment, 0, len(docs))
	for _, d := range docs {
		var c domain.Comment
		if err := d.DataTo(&c); err != nil {
			return nil, fmt.Errorf("comment.load: %w", err)
		}
		c.ID, c.EntryID = d.ID(), entryID
		out = append(out, c)
	}
	return out, nil
}

// attachProfiles resolves the non-anonymous authors in one batch.
func (s *Service) attachProfiles(ctx context.Context, comments []domain.Comment) error {
	authors := make([]domain.AuthorRef, len(comments))
	for i, c := range comments {
		authors[i] = c.Author
	}

	profiles, err := s.profiles.Resolve(ctx, authors)
	if err != nil {
		return err
	}
	for i := range comments {
		if !comments[i].IsAnonymous {
			comments[i].AuthorProfile = profiles[comments[i].Author.ID]
		}
	}
	return nil
}
