package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// ShareEntry records that the current actor shared entryID to target.
func (s *Service) ShareEntry(ctx context.Context, entryID, target string) (*domain.Share, error) {
	target = strings.TrimSpace(target)

	var share domain.Share
	err := s.ctrl.Run(ctx, mutation.Op{Name: "engagement.share", Key: domain.EntryLockKey(entryID)}, func(ctx context.Context) error {
		var errs []domain.FieldError
		if entryID == "" {
			errs = append(errs, domain.FieldError{Field: "entry_id", Message: "required"})
		}
		if target == "" {
			errs = append(errs, domain.FieldError{Field: "target", Message: "required"})
		}
		if len(target) > maxTargetLen {
			errs = append(errs, domain.FieldError{Field: "target", Message: fmt.Sprintf("max %d characters", maxTargetLen)})
		}
		if len(errs) > 0 {
			return domain.NewValidationErrors(errs)
		}

		actor, err := s.actors.ResolveActor(ctx)
		if err != nil {
			return err
		}

		share = domain.Share{
			ID:        s.newID(),
			EntryID:   entryID,
			Author:    actor.AuthorRef(),
			Target:    target,
			CreatedAt: s.now(),
		}
		if err := s.docs.Set(ctx, docstore.Shares.Doc(share.ID), share); err != nil {
			return domain.RemoteWriteFailed("engagement.ShareEntry", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "entry shared",
		slog.String("entry_id", entryID),
		slog.String("target", target),
	)
	return &share, nil
}

// EntryShares returns the shares of entryID in creation order.
func (s *Service) EntryShares(ctx context.Context, entryID string) ([]domain.Share, error) {
	docs, err := s.docs.Query(ctx, docstore.Shares, docstore.Where("entryId", entryID))
	if err != nil {
		return nil, domain.RemoteReadFailed("engagement.EntryShares", err)
	}

	shares := make([]domain.Share, 0, len(docs))
	for _, d := range docs {
		var sh domain.Share
		if err := d.DataTo(&sh); err != nil {
			return nil, fmt.Errorf("engagement.EntryShares: %w", err)
		}
		sh.ID = d.ID()
		shares = append(shares, sh)
	}
	return shares, nil
}

// DeleteEntryShares removes every share of entryID in one transaction and
// returns the removed records so they can be restored.
func (s *Service) DeleteEntryShares(ctx context.Context, entryID string) ([]domain.Share, error) {
	shares, err := s.EntryShares(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return shares, nil
	}

	err = s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		for _, sh := range shares {
			if err := tx.Delete(ctx, docstore.Shares.Doc(sh.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.RemoteWriteFailed("engagement.DeleteEntryShares", err)
	}

	s.log.InfoContext(ctx, "entry shares deleted",
		slog.String("entry_id", entryID),
		slog.Int("count", len(shares)),
	)
	return shares, nil
}

// RestoreShares writes back shares removed by DeleteEntryShares.
func (s *Service) RestoreShares(ctx context.Context, shares []domain.Share) error {
	if len(shares) == 0 {
		return nil
	}
	err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		for _, sh := range shares {
			if err := tx.Set(ctx, docstore.Shares.Doc(sh.ID), sh); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.RemoteWriteFailed("engagement.RestoreShares", err)
	}
	return nil
}
