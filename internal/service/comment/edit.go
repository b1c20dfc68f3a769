package comment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// EditComment replaces the text of a cached comment authored by userID.
func (s *Service) EditComment(ctx context.Context, entryID, commentID, text, userID string) error {
	text = strings.TrimSpace(text)

	return s.ctrl.Run(ctx, mutation.Op{Name: "comment.edit", Key: commentKey(commentID)}, func(ctx context.Context) error {
		if err := validateText(text); err != nil {
			return err
		}

		c, target, err := s.authorized(commentID, userID)
		if err != nil {
			return err
		}

		now := s.now()
		path := docstore.Comments(entryID).Doc(commentID)
		err = s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			if _, err := tx.Get(ctx, path); err != nil {
				return err
			}
			return tx.Update(ctx, path, docstore.Fields{"text": text, "updated": now})
		})
		if err != nil {
			return domain.RemoteWriteFailed("comment.Edit", err)
		}

		target.Replace(c.ID, func(c domain.Comment) domain.Comment {
			c.Text, c.UpdatedAt = text, &now
			return c
		})
		s.log.InfoContext(ctx, "comment edited", slog.String("comment_id", commentID))
		return nil
	})
}

// DeleteComment removes a cached comment authored by userID.
func (s *Service) DeleteComment(ctx context.Context, entryID, commentID, userID string) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "comment.delete", Key: commentKey(commentID)}, func(ctx context.Context) error {
		c, target, err := s.authorized(commentID, userID)
		if err != nil {
			return err
		}

		if err := s.docs.Delete(ctx, docstore.Comments(entryID).Doc(commentID)); err != nil {
			return domain.RemoteWriteFailed("comment.Delete", err)
		}

		target.Remove(c.ID)
		s.log.InfoContext(ctx, "comment deleted", slog.String("comment_id", commentID))
		return nil
	})
}

// LikeComment adds the current actor to the likes of a comment. Liking twice
// leaves both the remote and the cached set unchanged.
func (s *Service) LikeComment(ctx context.Context, entryID, commentID string) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "comment.like", Key: commentKey(commentID)}, func(ctx context.Context) error {
		actor, err := s.actors.ResolveActor(ctx)
		if err != nil {
			return err
		}
		ref := actor.Ref()

		err = s.docs.Update(ctx, docstore.Comments(entryID).Doc(commentID), docstore.Fields{
			"likes": docstore.ArrayUnion(ref),
		})
		if err != nil {
			return domain.RemoteWriteFailed("comment.Like", err)
		}

		if _, target, ok := s.cached(commentID); ok {
			target.Replace(commentID, func(c domain.Comment) domain.Comment {
				c.Likes = c.Likes.With(ref)
				return c
			})
		}
		return nil
	})
}

// authorized returns the cached comment when userID is its author.
func (s *Service) authorized(commentID, userID string) (domain.Comment, cacheRef, error) {
	c, target, ok := s.cached(commentID)
	if !ok {
		return domain.Comment{}, nil, fmt.Errorf("comment %s: %w", commentID, domain.ErrNotFound)
	}
	if !c.Author.IsAuthoredBy(userID) {
		return domain.Comment{}, nil, fmt.Errorf("comment %s: %w", commentID, domain.ErrPermissionDenied)
	}
	return c, target, nil
}
