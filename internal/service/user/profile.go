package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// UpdateProfile changes the display name or photo of the signed-in user.
// The role is never touched here.
func (s *Service) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error) {
	current, ok := s.CurrentUser()

	var updated domain.User
	err := s.ctrl.Run(ctx, mutation.Op{Name: "user.update_profile", Key: userKey(current.UID)}, func(ctx context.Context) error {
		if err := input.Validate(); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user.UpdateProfile: %w", domain.ErrUnauthorized)
		}

		path := docstore.Users.Doc(current.UID)

		err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			doc, err := tx.Get(ctx, path)
			if err != nil {
				return err
			}
			u, err := decodeUser(doc)
			if err != nil {
				return err
			}

			if input.DisplayName != nil {
				u.DisplayName = strings.TrimSpace(*input.DisplayName)
			}
			if input.PhotoURL != nil {
				u.PhotoURL = *input.PhotoURL
			}
			updated = u
			return tx.Update(ctx, path, input.fields())
		})
		if err != nil {
			return domain.RemoteWriteFailed("user.UpdateProfile", err)
		}

		s.setCurrent(updated)
		s.users.Replace(updated.UID, func(domain.User) domain.User { return updated })
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "profile updated", slog.String("user_id", updated.UID))
	return &updated, nil
}
