package profile

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

func newTestResolver(t *testing.T) (*Resolver, *memory.DocStore) {
	t.Helper()
	docs := memory.NewDocStore()
	ctx := context.Background()
	require.NoError(t, docs.Set(ctx, docstore.Users.Doc("u1"), domain.User{Email: "a@example.com", DisplayName: "Ann"}))
	require.NoError(t, docs.Set(ctx, docstore.Users.Doc("u2"), domain.User{Email: "b@example.com", DisplayName: "Bob"}))
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)), docs), docs
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	r, docs := newTestResolver(t)
	var getAll int
	docs.SetFault(func(op, _ string) error {
		if op == "getall" {
			getAll++
		}
		return nil
	})

	got, err := r.Resolve(context.Background(), []domain.AuthorRef{
		{ID: "u1"},
		{ID: "u2"},
		{ID: "u1"},
		{ID: "fp-anon", Anonymous: true},
		{ID: "ghost"},
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", got["u1"].DisplayName)
	assert.Equal(t, "u2", got["u2"].UID)
	assert.Equal(t, 1, getAll, "profiles are read in one batch")
}

func TestResolver_OnlyAnonymous(t *testing.T) {
	t.Parallel()

	r, docs := newTestResolver(t)
	docs.SetFault(func(string, string) error { return errors.New("must not be called") })

	got, err := r.Resolve(context.Background(), []domain.AuthorRef{{ID: "fp", Anonymous: true}})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolver_ReadFailure(t *testing.T) {
	t.Parallel()

	r, docs := newTestResolver(t)
	docs.SetFault(func(op, _ string) error {
		if op == "getall" {
			return errors.New("unavailable")
		}
		return nil
	})

	_, err := r.Lookup(context.Background(), domain.AuthorRef{ID: "u1"})

	assert.ErrorIs(t, err, domain.ErrRemoteRead)
}
