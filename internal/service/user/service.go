// Package user is the users store: the signed-in account, its session and
// the admin view of all users. It is the account source of the identity
// resolver.
package user

import (
	"context"
	"log/slog"
	"sync"

	"github.com/heartmarshall/promptboard/internal/auth"
	"github.com/heartmarshall/promptboard/internal/cache"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

type documents interface {
	Get(ctx context.Context, path docstore.Path) (docstore.Document, error)
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
	Set(ctx context.Context, path docstore.Path, value any) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error
}

type oauthVerifier interface {
	VerifyCode(ctx context.Context, code string) (*auth.OAuthIdentity, error)
}

type sessionManager interface {
	Issue(uid string, role domain.UserRole) (string, auth.Session, error)
	Validate(token string) (auth.Session, error)
}

type sessionStore interface {
	Save(ctx context.Context, tokenHash string, sess auth.Session) error
	Lookup(ctx context.Context, tokenHash string) (auth.Session, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// Service is the users store.
type Service struct {
	docs     documents
	oauth    oauthVerifier
	tokens   sessionManager
	sessions sessionStore
	users    *cache.Collection[domain.User]
	ctrl     *mutation.Controller
	log      *slog.Logger

	mu      sync.RWMutex
	current *domain.User
	token   string
}

// NewService creates a new users store.
func NewService(
	log *slog.Logger,
	docs documents,
	oauth oauthVerifier,
	tokens sessionManager,
	sessions sessionStore,
	opts ...mutation.Option,
) *Service {
	logger := log.With("service", "user")
	return &Service{
		docs:     docs,
		oauth:    oauth,
		tokens:   tokens,
		sessions: sessions,
		users:    cache.New(func(u domain.User) string { return u.UID }),
		ctrl:     mutation.NewController(logger, opts...),
		log:      logger,
	}
}

// User returns the signed-in user, or nil.
func (s *Service) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// CurrentUser reports the signed-in user.
func (s *Service) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

// Users returns the cached list of all users.
func (s *Service) Users() []domain.User { return s.users.Items() }

// IsAuthenticated reports whether a user is signed in.
func (s *Service) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// IsAdmin reports whether the signed-in user is an admin.
func (s *Service) IsAdmin() bool {
	u, ok := s.CurrentUser()
	return ok && u.IsAdmin()
}

// IsLoading reports whether an operation is in flight.
func (s *Service) IsLoading() bool { return s.ctrl.IsLoading() }

func (s *Service) signIn(u domain.User, token string) {
	s.mu.Lock()
	s.current = &u
	s.token = token
	s.mu.Unlock()
}

func (s *Service) setCurrent(u domain.User) {
	s.mu.Lock()
	if s.current != nil && s.current.UID == u.UID {
		s.current = &u
	}
	s.mu.Unlock()
}

func (s *Service) sessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Service) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.token = ""
	s.users.Reset()
}

func userKey(uid string) string { return "user:" + uid }

func decodeUser(doc docstore.Document) (domain.User, error) {
	var u domain.User
	if err := doc.DataTo(&u); err != nil {
		return domain.User{}, err
	}
	u.UID = doc.ID()
	return u, nil
}

func (s *Service) readUser(ctx context.Context, uid string) (domain.User, error) {
	doc, err := s.docs.Get(ctx, docstore.Users.Doc(uid))
	if err != nil {
		return domain.User{}, domain.RemoteReadFailed("user.readUser", err)
	}
	return decodeUser(doc)
}
