package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/auth"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// SignIn exchanges a Google authorization code for a session. A first sign-in
// creates the users/<uid> profile with the user role.
func (s *Service) SignIn(ctx context.Context, code string) (*SignInResult, error) {
	var result SignInResult
	err := s.ctrl.Run(ctx, mutation.Op{Name: "user.sign_in"}, func(ctx context.Context) error {
		if strings.TrimSpace(code) == "" {
			return domain.NewValidationError("code", "required")
		}

		identity, err := s.oauth.VerifyCode(ctx, code)
		if err != nil {
			return fmt.Errorf("user.SignIn verify code: %w", err)
		}
		if identity.Subject == "" {
			return fmt.Errorf("user.SignIn: identity without subject: %w", domain.ErrUnauthorized)
		}

		created, err := s.ensureProfile(ctx, identity)
		if err != nil {
			return err
		}

		u, err := s.readUser(ctx, identity.Subject)
		if err != nil {
			return err
		}

		token, err := s.startSession(ctx, u)
		if err != nil {
			return err
		}

		s.signIn(u, token)
		result = SignInResult{User: u, Token: token, IsNewAccount: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user signed in",
		slog.String("user_id", result.User.UID),
		slog.Bool("new_account", result.IsNewAccount),
	)
	return &result, nil
}

// ensureProfile writes the profile of a new account. It reports whether the
// account was created.
func (s *Service) ensureProfile(ctx context.Context, identity *auth.OAuthIdentity) (bool, error) {
	path := docstore.Users.Doc(identity.Subject)

	var created bool
	err := s.docs.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		created = false
		if _, err := tx.Get(ctx, path); err == nil {
			return nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		created = true
		return tx.Set(ctx, path, domain.User{
			Email:       strings.ToLower(strings.TrimSpace(identity.Email)),
			DisplayName: displayName(identity),
			PhotoURL:    identity.PhotoURL,
			Role:        domain.UserRoleUser,
		})
	})
	if err != nil {
		return false, domain.RemoteWriteFailed("user.SignIn", err)
	}
	return created, nil
}

func (s *Service) startSession(ctx context.Context, u domain.User) (string, error) {
	token, sess, err := s.tokens.Issue(u.UID, u.Role)
	if err != nil {
		return "", fmt.Errorf("user.SignIn issue token: %w", err)
	}
	if err := s.sessions.Save(ctx, auth.HashToken(token), sess); err != nil {
		return "", domain.RemoteWriteFailed("user.SignIn save session", err)
	}
	return token, nil
}

// RestoreSession signs the user of a previously issued token back in.
// Unknown, revoked and expired tokens wrap domain.ErrUnauthorized.
func (s *Service) RestoreSession(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	err := s.ctrl.Run(ctx, mutation.Op{Name: "user.restore_session"}, func(ctx context.Context) error {
		claims, err := s.tokens.Validate(token)
		if err != nil {
			return err
		}

		sess, err := s.sessions.Lookup(ctx, auth.HashToken(token))
		if err != nil {
			return domain.RemoteReadFailed("user.RestoreSession", err)
		}
		if sess.ID != claims.ID || sess.UserID != claims.UserID {
			return fmt.Errorf("user.RestoreSession: session mismatch: %w", domain.ErrUnauthorized)
		}

		u, err = s.readUser(ctx, claims.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user.RestoreSession: account removed: %w", domain.ErrUnauthorized)
		}
		if err != nil {
			return err
		}

		s.signIn(u, token)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "session restored", slog.String("user_id", u.UID))
	return &u, nil
}

// Logout revokes the current session and clears all user state. When the
// session cannot be revoked the user stays signed in so Logout can be retried.
func (s *Service) Logout(ctx context.Context) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "user.logout"}, func(ctx context.Context) error {
		u, ok := s.CurrentUser()
		if token := s.sessionToken(); token != "" {
			if err := s.sessions.Revoke(ctx, auth.HashToken(token)); err != nil {
				return domain.RemoteWriteFailed("user.Logout", err)
			}
		}

		s.reset()
		if ok {
			s.log.InfoContext(ctx, "user logged out", slog.String("user_id", u.UID))
		}
		return nil
	})
}

func displayName(identity *auth.OAuthIdentity) string {
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	email := strings.TrimSpace(identity.Email)
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
