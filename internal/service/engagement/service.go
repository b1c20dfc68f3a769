// Package engagement stores likes and shares of entries.
package engagement

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

type documents interface {
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
	Set(ctx context.Context, path docstore.Path, value any) error
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error
}

type actorResolver interface {
	ResolveActor(ctx context.Context) (domain.Actor, error)
}

const maxTargetLen = 64

// Service is the likes / shares store.
type Service struct {
	docs   documents
	actors actorResolver
	ctrl   *mutation.Controller
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService creates a new engagement store.
func NewService(log *slog.Logger, docs documents, actors actorResolver, newID func() string, opts ...mutation.Option) *Service {
	logger := log.With("service", "engagement")
	return &Service{
		docs:   docs,
		actors: actors,
		ctrl:   mutation.NewController(logger, opts...),
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  newID,
	}
}

// IsLoading reports whether an operation is in flight.
func (s *Service) IsLoading() bool { return s.ctrl.IsLoading() }

// likeID is deterministic so liking twice writes the same document.
func likeID(entryID, ref string) string {
	return entryID + "_" + strings.ReplaceAll(ref, "/", "_")
}
