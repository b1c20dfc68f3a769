package entry

import (
	"context"
	"fmt"

	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
	"github.com/heartmarshall/promptboard/internal/mutation"
)

// FetchEntryBySlug returns the entry with slug together with its author and
// prompt.
func (s *Service) FetchEntryBySlug(ctx context.Context, slug string) (*EntryDetail, error) {
	var detail EntryDetail
	err := s.ctrl.Run(ctx, mutation.Op{Name: "entry.fetch"}, func(ctx context.Context) error {
		if slug == "" {
			return domain.NewValidationError("slug", "required")
		}

		docs, err := s.docs.Query(ctx, docstore.Entries, docstore.Where("slug", slug))
		if err != nil {
			return domain.RemoteReadFailed("entry.FetchEntryBySlug", err)
		}
		if len(docs) == 0 {
			return fmt.Errorf("entry %q: %w", slug, domain.ErrNotFound)
		}

		e, err := s.decode(ctx, docs[0])
		if err != nil {
			return fmt.Errorf("entry.FetchEntryBySlug: %w", err)
		}

		author, err := s.profiles.Lookup(ctx, e.Author)
		if err != nil {
			return err
		}

		prompt, err := s.readPrompt(ctx, e.PromptID)
		if err != nil {
			return err
		}

		detail = EntryDetail{Entry: e, Author: author, Prompt: prompt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *Service) readPrompt(ctx context.Context, promptID string) (*domain.Prompt, error) {
	doc, err := s.docs.Get(ctx, docstore.Prompts.Doc(promptID))
	if err != nil {
		return nil, domain.RemoteReadFailed("entry.readPrompt", err)
	}
	var p domain.Prompt
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("entry.readPrompt: %w", err)
	}
	p.ID = doc.ID()
	return &p, nil
}

func (s *Service) readEntry(ctx context.Context, entryID string) (domain.Entry, docstore.Document, error) {
	doc, err := s.docs.Get(ctx, docstore.Entries.Doc(entryID))
	if err != nil {
		return domain.Entry{}, docstore.Document{}, domain.RemoteReadFailed("entry.readEntry", err)
	}
	e, err := s.decode(ctx, doc)
	if err != nil {
		return domain.Entry{}, docstore.Document{}, fmt.Errorf("entry.readEntry: %w", err)
	}
	return e, doc, nil
}
