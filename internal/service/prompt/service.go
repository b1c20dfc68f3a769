// Package prompt owns the cached prompts and the entry summaries denormalized
// into them. The entries store patches it after its remote writes succeed.
package prompt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heartmarshall/promptboard/internal/cache"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

type documents interface {
	GetAll(ctx context.Context, paths []docstore.Path) ([]docstore.Document, error)
	Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error)
}

type profileResolver interface {
	Resolve(ctx context.Context, authors []domain.AuthorRef) (map[string]*domain.User, error)
}

// Service is the prompt store.
type Service struct {
	docs     documents
	profiles profileResolver
	prompts  *cache.Collection[domain.Prompt]
	ctrl     *mutation.Controller
	log      *slog.Logger
}

// NewService creates a new prompt store.
func NewService(log *slog.Logger, docs documents, profiles profileResolver, opts ...mutation.Option) *Service {
	logger := log.With("service", "prompt")
	return &Service{
		docs:     docs,
		profiles: profiles,
		prompts:  cache.New(func(p domain.Prompt) string { return p.ID }),
		ctrl:     mutation.NewController(logger, opts...),
		log:      logger,
	}
}

// Prompts returns the cached prompts.
func (s *Service) Prompts() []domain.Prompt { return s.prompts.Items() }

// Prompt returns a cached prompt by id.
func (s *Service) Prompt(id string) (domain.Prompt, bool) { return s.prompts.Find(id) }

// IsLoading reports whether a fetch is in flight.
func (s *Service) IsLoading() bool { return s.ctrl.IsLoading() }

// FindEntry returns the cached summary of entryID and the prompt holding it.
func (s *Service) FindEntry(entryID string) (string, domain.EntrySummary, bool) {
	for _, p := range s.prompts.Items() {
		if i := p.EntryIndex(entryID); i >= 0 {
			return p.ID, p.Entries[i], true
		}
	}
	return "", domain.EntrySummary{}, false
}

// UpsertEntry inserts or replaces the summary inside a cached prompt. It
// reports whether the prompt is cached.
func (s *Service) UpsertEntry(promptID string, summary domain.EntrySummary) bool {
	ref := docstore.EntryRef(summary.ID)
	return s.prompts.Replace(promptID, func(p domain.Prompt) domain.Prompt {
		entries := make([]domain.EntrySummary, 0, len(p.Entries)+1)
		replaced := false
		for _, e := range p.Entries {
			if e.ID == summary.ID {
				e, replaced = summary, true
			}
			entries = append(entries, e)
		}
		if !replaced {
			entries = append(entries, summary)
		}
		p.Entries = entries
		p.EntryRefs = withRef(p.EntryRefs, ref)
		return p
	})
}

// RemoveEntry drops the summary and the reference of entryID from a cached
// prompt. It reports whether the prompt is cached.
func (s *Service) RemoveEntry(promptID, entryID string) bool {
	ref := docstore.EntryRef(entryID)
	return s.prompts.Replace(promptID, func(p domain.Prompt) domain.Prompt {
		entries := make([]domain.EntrySummary, 0, len(p.Entries))
		for _, e := range p.Entries {
			if e.ID != entryID {
				entries = append(entries, e)
			}
		}
		refs := make([]string, 0, len(p.EntryRefs))
		for _, r := range p.EntryRefs {
			if r != ref {
				refs = append(refs, r)
			}
		}
		p.Entries, p.EntryRefs = entries, refs
		return p
	})
}

func withRef(refs []string, ref string) []string {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	out := make([]string, len(refs), len(refs)+1)
	copy(out, refs)
	return append(out, ref)
}

// entryPath converts a stored "entries/<id>" reference into a document path.
func entryPath(ref string) (docstore.Path, bool) {
	p := docstore.Path(strings.TrimPrefix(ref, "/"))
	if !p.Valid() || p.Collection() != docstore.Entries {
		return "", false
	}
	return p, true
}
