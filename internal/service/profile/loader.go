// Package profile resolves author references to user profiles, batching the
// lookups of one fetch into a single document read.
package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

const (
	maxBatch = 100
	wait     = 2 * time.Millisecond
)

type userDocs interface {
	GetAll(ctx context.Context, paths []docstore.Path) ([]docstore.Document, error)
}

// Resolver hands out per-fetch profile loaders.
type Resolver struct {
	docs userDocs
	log  *slog.Logger
}

// NewResolver creates a Resolver reading users/<uid> documents.
func NewResolver(logger *slog.Logger, docs userDocs) *Resolver {
	return &Resolver{docs: docs, log: logger.With("service", "profile")}
}

// Resolve returns the profiles of the non-anonymous authors, keyed by uid.
// Authors whose document is missing are absent from the map.
func (r *Resolver) Resolve(ctx context.Context, authors []domain.AuthorRef) (map[string]*domain.User, error) {
	seen := make(map[string]struct{}, len(authors))
	keys := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Anonymous || a.ID == "" {
			continue
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		keys = append(keys, a.ID)
	}

	out := make(map[string]*domain.User, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	users, errs := r.newLoader().LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return nil, domain.RemoteReadFailed("profile.Resolve", err)
		}
	}
	for i, u := range users {
		if u != nil && i < len(keys) {
			out[keys[i]] = u
		}
	}
	return out, nil
}

// Lookup resolves a single author.
func (r *Resolver) Lookup(ctx context.Context, author domain.AuthorRef) (*domain.User, error) {
	profiles, err := r.Resolve(ctx, []domain.AuthorRef{author})
	if err != nil {
		return nil, err
	}
	return profiles[author.ID], nil
}

// newLoader creates a loader whose cache lives for a single Resolve call.
func (r *Resolver) newLoader() *dataloader.Loader[string, *domain.User] {
	return dataloader.NewBatchedLoader(
		r.batch,
		dataloader.WithWait[string, *domain.User](wait),
		dataloader.WithBatchCapacity[string, *domain.User](maxBatch),
	)
}

func (r *Resolver) batch(ctx context.Context, keys []string) []*dataloader.Result[*domain.User] {
	paths := make([]docstore.Path, len(keys))
	for i, k := range keys {
		paths[i] = docstore.Users.Doc(k)
	}

	docs, err := r.docs.GetAll(ctx, paths)
	if err != nil {
		results := make([]*dataloader.Result[*domain.User], len(keys))
		for i := range results {
			results[i] = &dataloader.Result[*domain.User]{Error: err}
		}
		return results
	}

	byID := make(map[string]*domain.User, len(docs))
	for _, d := range docs {
		var u domain.User
		if err := d.DataTo(&u); err != nil {
			r.log.WarnContext(ctx, "skip malformed user document",
				slog.String("path", d.Path.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		u.UID = d.ID()
		byID[u.UID] = &u
	}

	results := make([]*dataloader.Result[*domain.User], len(keys))
	for i, k := range keys {
		results[i] = &dataloader.Result[*domain.User]{Data: byID[k]}
	}
	return results
}
