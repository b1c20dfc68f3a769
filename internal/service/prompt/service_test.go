package prompt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/promptboard/internal/adapter/memory"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticProfiles() *profileResolverMock {
	return &profileResolverMock{
		ResolveFunc: func(_ context.Context, authors []domain.AuthorRef) (map[string]*domain.User, error) {
			out := map[string]*domain.User{}
			for _, a := range authors {
				if !a.Anonymous {
					out[a.ID] = &domain.User{UID: a.ID, DisplayName: "name-" + a.ID}
				}
			}
			return out, nil
		},
	}
}

// seedBoard writes prompt P1 with entries P1T0 (explicit prompt id) and P1T5
// (legacy document without promptId) plus a dangling reference.
func seedBoard(t *testing.T, docs *memory.DocStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, docs.Set(ctx, docstore.Prompts.Doc("P1"), map[string]any{
		"title": "First prompt",
		"slug":  "first-prompt",
		"entries": []string{
			docstore.EntryRef("P1T0"),
			docstore.EntryRef("P1T5"),
			docstore.EntryRef("P1T9"),
		},
	}))
	require.NoError(t, docs.Set(ctx, docstore.Prompts.Doc("P2"), map[string]any{"title": "Empty", "slug": "empty"}))
	require.NoError(t, docs.Set(ctx, docstore.Entries.Doc("P1T0"), domain.Entry{
		PromptID: "P1", Slug: "p1t0", Title: "Zero", Author: domain.AuthorRef{ID: "u1"},
	}))
	require.NoError(t, docs.Set(ctx, docstore.Entries.Doc("P1T5"), map[string]any{
		"slug": "p1t5", "title": "Legacy", "author": map[string]any{"id": "u2"},
	}))
}

// ---------------------------------------------------------------------------
// FetchPrompts
// ---------------------------------------------------------------------------

func TestFetchPrompts_BuildsSummaries(t *testing.T) {
	t.Parallel()

	docs := memory.NewDocStore()
	seedBoard(t, docs)
	profiles := staticProfiles()
	svc := NewService(testLogger(), docs, profiles)

	require.NoError(t, svc.FetchPrompts(context.Background()))

	p, ok := svc.Prompt("P1")
	require.True(t, ok)
	require.Len(t, p.Entries, 2, "dangling reference is skipped")
	assert.Equal(t, "P1T0", p.Entries[0].ID)
	assert.Equal(t, "name-u1", p.Entries[0].Profile.DisplayName)
	assert.Equal(t, "P1T5", p.Entries[1].ID)
	assert.Equal(t, int64(1), p.Entries[0].Version)

	empty, ok := svc.Prompt("P2")
	require.True(t, ok)
	assert.Empty(t, empty.Entries)

	require.Len(t, profiles.ResolveCalls(), 1)
	assert.Len(t, profiles.ResolveCalls()[0].Authors, 2)
	assert.False(t, svc.IsLoading())
}

func TestFetchPrompts_RemoteFailure(t *testing.T) {
	t.Parallel()

	docs := memory.NewDocStore()
	seedBoard(t, docs)
	docs.SetFault(func(op, _ string) error {
		if op == "getall" {
			return errors.New("unavailable")
		}
		return nil
	})
	svc := NewService(testLogger(), docs, staticProfiles())

	err := svc.FetchPrompts(context.Background())

	assert.ErrorIs(t, err, domain.ErrRemoteRead)
	assert.Empty(t, svc.Prompts(), "cache is untouched on failure")
	assert.False(t, svc.IsLoading())
}

// ---------------------------------------------------------------------------
// Cache patches
// ---------------------------------------------------------------------------

func TestUpsertAndRemoveEntry(t *testing.T) {
	t.Parallel()

	docs := memory.NewDocStore()
	seedBoard(t, docs)
	svc := NewService(testLogger(), docs, staticProfiles())
	require.NoError(t, svc.FetchPrompts(context.Background()))
	before, _ := svc.Prompt("P1")

	assert.True(t, svc.UpsertEntry("P1", domain.EntrySummary{ID: "P1T7", Title: "New"}))
	assert.True(t, svc.UpsertEntry("P1", domain.EntrySummary{ID: "P1T0", Title: "Edited"}))

	p, _ := svc.Prompt("P1")
	require.Len(t, p.Entries, 3)
	assert.Equal(t, "Edited", p.Entries[0].Title)
	assert.Equal(t, "P1T7", p.Entries[2].ID)
	assert.Contains(t, p.EntryRefs, docstore.EntryRef("P1T7"))
	assert.Len(t, before.Entries, 2, "earlier snapshots stay unchanged")

	promptID, summary, ok := svc.FindEntry("P1T7")
	require.True(t, ok)
	assert.Equal(t, "P1", promptID)
	assert.Equal(t, "New", summary.Title)

	assert.True(t, svc.RemoveEntry("P1", "P1T7"))
	p, _ = svc.Prompt("P1")
	assert.Len(t, p.Entries, 2)
	assert.NotContains(t, p.EntryRefs, docstore.EntryRef("P1T7"))

	assert.False(t, svc.UpsertEntry("missing", domain.EntrySummary{ID: "x"}))
	assert.False(t, svc.RemoveEntry("missing", "x"))
}
