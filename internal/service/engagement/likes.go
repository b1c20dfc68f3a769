package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// LikeEntry records that the current actor likes entryID. It reports whether
// a new like was written; liking twice is a no-op.
func (s *Service) LikeEntry(ctx context.Context, entryID string) (bool, error) {
	var created bool
	err := s.ctrl.Run(ctx, mutation.Op{Name: "engagement.like", Key: domain.EntryLockKey(entryID)}, func(ctx context.Context) error {
		if entryID == "" {
			return domain.NewValidationError("entry_id", "required")
		}

		actor, err := s.actors.ResolveActor(ctx)
		if err != nil {
			return err
		}

		like := domain.Like{EntryID: entryID, Author: actor.AuthorRef(), CreatedAt: s.now()}
		path := docstore.Likes.Doc(likeID(entryID, actor.Ref()))

		err = s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			created = false
			if _, err := tx.Get(ctx, path); err == nil {
				return nil
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			created = true
			return tx.Set(ctx, path, like)
		})
		if err != nil {
			return domain.RemoteWriteFailed("engagement.LikeEntry", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		s.log.InfoContext(ctx, "entry liked", slog.String("entry_id", entryID))
	}
	return created, nil
}

// EntryLikes returns the likes of entryID in creation order.
func (s *Service) EntryLikes(ctx context.Context, entryID string) ([]domain.Like, error) {
	docs, err := s.docs.Query(ctx, docstore.Likes, docstore.Where("entryId", entryID))
	if err != nil {
		return nil, domain.RemoteReadFailed("engagement.EntryLikes", err)
	}

	likes := make([]domain.Like, 0, len(docs))
	for _, d := range docs {
		var l domain.Like
		if err := d.DataTo(&l); err != nil {
			return nil, fmt.Errorf("engagement.EntryLikes: %w", err)
		}
		l.ID = d.ID()
		likes = append(likes, l)
	}
	return likes, nil
}

// CountEntryLikes returns the number of likes of entryID.
func (s *Service) CountEntryLikes(ctx context.Context, entryID string) (int, error) {
	likes, err := s.EntryLikes(ctx, entryID)
	if err != nil {
		return 0, err
	}
	return len(likes), nil
}

// DeleteEntryLikes removes every like of entryID in one transaction and
// returns the removed records so they can be restored.
func (s *Service) DeleteEntryLikes(ctx context.Context, entryID string) ([]domain.Like, error) {
	likes, err := s.EntryLikes(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return likes, nil
	}

	err = s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		for _, l := range likes {
			if err := tx.Delete(ctx, docstore.Likes.Doc(l.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.RemoteWriteFailed("engagement.DeleteEntryLikes", err)
	}

	s.log.InfoContext(ctx, "entry likes deleted",
		slog.String("entry_id", entryID),
		slog.Int("count", len(likes)),
	)
	return likes, nil
}

// RestoreLikes writes back likes removed by DeleteEntryLikes.
func (s *Service) RestoreLikes(ctx context.Context, likes []domain.Like) error {
	if len(likes) == 0 {
		return nil
	}
	err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		for _, l := range likes {
			if err := tx.Set(ctx, docstore.Likes.Doc(l.ID), l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.RemoteWriteFailed("engagement.RestoreLikes", err)
	}
	return nil
}
