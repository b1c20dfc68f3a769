// Package comment is the comments store: the cached comments of the entry
// being viewed and the replies of the thread being expanded.
package comment

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/promptboard/internal/cache"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

type documents interface {
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
	Set(ctx context.Context, path docstore.Path, value any) error
	Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error
	Delete(ctx context.Context, path docstore.Path) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error
}

type actorResolver interface {
	ResolveActor(ctx context.Context) (domain.Actor, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, authors []domain.AuthorRef) (map[string]*domain.User, error)
}

// MaxTextLength is the longest accepted comment, in characters.
const MaxTextLength = 2000

// Service is the comments store.
type Service struct {
	docs     documents
	actors   actorResolver
	profiles profileResolver
	comments cacheRef
	replies  cacheRef
	ctrl     *mutation.Controller
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new comments store.
func NewService(
	log *slog.Logger,
	docs documents,
	actors actorResolver,
	profiles profileResolver,
	opts ...mutation.Option,
) *Service {
	logger := log.With("service", "comment")
	byID := func(c domain.Comment) string { return c.ID }
	return &Service{
		docs:     docs,
		actors:   actors,
		profiles: profiles,
		comments: cache.New(byID),
		replies:  cache.New(byID),
		ctrl:     mutation.NewController(logger, opts...),
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Comments returns the cached top-level comments.
func (s *Service) Comments() []domain.Comment { return s.comments.Items() }

// ChildComments returns the cached replies of the expanded thread.
func (s *Service) ChildComments() []domain.Comment { return s.replies.Items() }

// IsLoading reports whether an operation is in flight.
func (s *Service) IsLoading() bool { return s.ctrl.IsLoading() }

type cacheRef = *cache.Collection[domain.Comment]

// cached finds a comment in either cache and returns the cache holding it.
func (s *Service) cached(commentID string) (domain.Comment, cacheRef, bool) {
	if c, ok := s.comments.Find(commentID); ok {
		return c, s.comments, true
	}
	if c, ok := s.replies.Find(commentID); ok {
		return c, s.replies, true
	}
	return domain.Comment{}, nil, false
}

func commentKey(id string) string { return "comment:" + id }
