package comment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// AddComment writes a top-level comment on entryID as the current actor and
// appends it to the cached comments.
func (s *Service) AddComment(ctx context.Context, entryID string, input AddCommentInput) (*domain.Comment, error) {
	return s.add(ctx, "comment.add", s.comments, entryID, "", input)
}

// AddReply writes a reply to parentID and appends it to the cached replies.
func (s *Service) AddReply(ctx context.Context, entryID, parentID string, input AddCommentInput) (*domain.Comment, error) {
	return s.add(ctx, "comment.add_reply", s.replies, entryID, parentID, input)
}

func (s *Service) add(ctx context.Context, name string, target cacheRef, entryID, parentID string, input AddCommentInput) (*domain.Comment, error) {
	var c domain.Comment
	err := s.ctrl.Run(ctx, mutation.Op{Name: name}, func(ctx context.Context) error {
		if entryID == "" {
			return domain.NewValidationError("entry_id", "required")
		}
		if target == s.replies && parentID == "" {
			return domain.NewValidationError("parent_id", "required")
		}
		if err := input.Validate(); err != nil {
			return err
		}

		actor, err := s.actors.ResolveActor(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		c = domain.Comment{
			ID:          domain.NewCommentID(now, actor.Ref()),
			EntryID:     entryID,
			ParentID:    parentID,
			Author:      actor.AuthorRef(),
			Text:        strings.TrimSpace(input.Text),
			IsAnonymous: actor.IsAnonymous(),
			CreatedAt:   now,
			Likes:       domain.NewLikeSet(),
		}

		if err := s.docs.Set(ctx, docstore.Comments(entryID).Doc(c.ID), c); err != nil {
			return domain.RemoteWriteFailed("comment.Add", err)
		}

		c.AuthorProfile = actor.Profile
		target.Append(c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "comment added",
		slog.String("entry_id", entryID),
		slog.String("comment_id", c.ID),
		slog.Bool("anonymous", c.IsAnonymous),
	)
	return &c, nil
}
