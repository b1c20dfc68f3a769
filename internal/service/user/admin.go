package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// FetchUsers replaces the cached user list with every stored profile.
func (s *Service) FetchUsers(ctx context.Context) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "user.fetch_users"}, func(ctx context.Context) error {
		docs, err := s.docs.Query(ctx, docstore.Users)
		if err != nil {
			return domain.RemoteReadFailed("user.FetchUsers", err)
		}

		users := make([]domain.User, 0, len(docs))
		for _, d := range docs {
			u, err := decodeUser(d)
			if err != nil {
				s.log.WarnContext(ctx, "skip undecodable user",
					slog.String("user_id", d.ID()),
					slog.String("error", err.Error()),
				)
				continue
			}
			users = append(users, u)
		}

		s.users.Set(users)
		return nil
	})
}

// UpdateRole sets the role of uid. Only admins may call it, and an admin
// cannot demote themselves.
func (s *Service) UpdateRole(ctx context.Context, uid string, role domain.UserRole) (*domain.User, error) {
	var updated domain.User
	err := s.ctrl.Run(ctx, mutation.Op{Name: "user.update_role", Key: userKey(uid)}, func(ctx context.Context) error {
		if err := s.checkRoleChange(uid, role); err != nil {
			return err
		}

		path := docstore.Users.Doc(uid)

		err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			doc, err := tx.Get(ctx, path)
			if err != nil {
				return err
			}
			u, err := decodeUser(doc)
			if err != nil {
				return err
			}
			u.Role = role
			updated = u
			return tx.Update(ctx, path, docstore.Fields{"role": role})
		})
		if err != nil {
			return domain.RemoteWriteFailed("user.UpdateRole", err)
		}

		s.users.Replace(uid, func(domain.User) domain.User { return updated })
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user role updated",
		slog.String("target_user_id", uid),
		slog.String("new_role", role.String()),
	)
	return &updated, nil
}

// checkRoleChange allows a signed-in admin to set a valid role on anyone but
// themselves, whom they may not demote.
func (s *Service) checkRoleChange(uid string, role domain.UserRole) error {
	caller, ok := s.CurrentUser()
	if !ok {
		return fmt.Errorf("user.UpdateRole: %w", domain.ErrUnauthorized)
	}
	if !caller.IsAdmin() {
		return fmt.Errorf("user.UpdateRole: %w", domain.ErrForbidden)
	}
	if uid == "" {
		return domain.NewValidationError("uid", "required")
	}
	if !role.IsValid() {
		return domain.NewValidationError("role", "invalid role: must be 'user' or 'admin'")
	}
	if uid == caller.UID && role != domain.UserRoleAdmin {
		return domain.NewValidationError("role", "cannot demote yourself")
	}
	return nil
}
