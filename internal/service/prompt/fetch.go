package prompt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// FetchPrompts loads every prompt with its entry summaries and replaces the
// cache. Entries are read in one batch; dangling references are skipped.
func (s *Service) FetchPrompts(ctx context.Context) error {
	return s.ctrl.Run(ctx, mutation.Op{Name: "prompt.fetch"}, func(ctx context.Context) error {
		docs, err := s.docs.Query(ctx, docstore.Prompts)
		if err != nil {
			return domain.RemoteReadFailed("prompt.FetchPrompts", err)
		}

		prompts := make([]domain.Prompt, 0, len(docs))
		var paths []docstore.Path
		for _, d := range docs {
			var p domain.Prompt
			if err := d.DataTo(&p); err != nil {
				return fmt.Errorf("prompt.FetchPrompts: %w", err)
			}
			p.ID = d.ID()
			for _, ref := range p.EntryRefs {
				if path, ok := entryPath(ref); ok {
					paths = append(paths, path)
				}
			}
			prompts = append(prompts, p)
		}

		entries, err := s.loadEntries(ctx, paths)
		if err != nil {
			return err
		}

		for i := range prompts {
			prompts[i].Entries = summariesFor(prompts[i], entries)
		}
		s.prompts.Set(prompts)

		s.log.InfoContext(ctx, "prompts fetched",
			slog.Int("prompts", len(prompts)),
			slog.Int("entries", len(entries)),
		)
		return nil
	})
}

func (s *Service) loadEntries(ctx context.Context, paths []docstore.Path) (map[string]domain.EntrySummary, error) {
	out := make(map[string]domain.EntrySummary, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	docs, err := s.docs.GetAll(ctx, paths)
	if err != nil {
		return nil, domain.RemoteReadFailed("prompt.FetchPrompts", err)
	}

	entries := make([]domain.Entry, 0, len(docs))
	authors := make([]domain.AuthorRef, 0, len(docs))
	for _, d := range docs {
		var e domain.Entry
		if err := d.DataTo(&e); err != nil {
			s.log.WarnContext(ctx, "skip malformed entry",
				slog.String("path", d.Path.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.ID, e.Version = d.ID(), d.Version
		if legacy, err := e.EnsurePromptID(); err != nil {
			s.log.WarnContext(ctx, "skip entry without prompt", slog.String("entry_id", e.ID))
			continue
		} else if legacy {
			s.log.WarnContext(ctx, "entry prompt derived from legacy id",
				slog.String("entry_id", e.ID),
				slog.String("prompt_id", e.PromptID),
			)
		}
		entries = append(entries, e)
		authors = append(authors, e.Author)
	}

	profiles, err := s.profiles.Resolve(ctx, authors)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		out[e.ID] = e.Summary(profiles[e.Author.ID])
	}
	return out, nil
}

// summariesFor returns the summaries of p in reference order.
func summariesFor(p domain.Prompt, entries map[string]domain.EntrySummary) []domain.EntrySummary {
	out := make([]domain.EntrySummary, 0, len(p.EntryRefs))
	for _, ref := range p.EntryRefs {
		path, ok := entryPath(ref)
		if !ok {
			continue
		}
		if e, ok := entries[path.ID()]; ok {
			out = append(out, e)
		}
	}
	return out
}
