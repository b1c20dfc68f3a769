package document_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/promptboard/internal/adapter/postgres/document"
	"github.com/heartmarshall/promptboard/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

type likesDoc struct {
	Likes []string `json:"likes"`
	Owner string   `json:"owner,omitempty"`
}

func newRepo(t *testing.T) *document.Repo {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}
	return document.New(testhelper.SetupTestDB(t))
}

// scope returns a collection unique to the test so shared state never leaks.
func scope() docstore.CollectionPath {
	return docstore.Collection("it_" + uuid.NewString()[:8])
}

func TestRepo_SetGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	path := scope().Doc("P1T0")

	require.NoError(t, repo.Set(ctx, path, likesDoc{Likes: []string{"u1"}}))
	require.NoError(t, repo.Set(ctx, path, likesDoc{Likes: []string{"u1", "u2"}}))

	doc, err := repo.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), doc.Version)

	var got likesDoc
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, []string{"u1", "u2"}, got.Likes)
}

func TestRepo_GetMissing(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Get(context.Background(), scope().Doc("missing"))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_UpdateArrayTransforms(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	path := scope().Doc("P1T0")
	require.NoError(t, repo.Set(ctx, path, likesDoc{Likes: []string{"u1"}}))

	require.NoError(t, repo.Update(ctx, path, docstore.Fields{"likes": docstore.ArrayUnion("u2", "u1")}))
	require.NoError(t, repo.Update(ctx, path, docstore.Fields{"likes": docstore.ArrayRemove("u1")}))

	doc, err := repo.Get(ctx, path)
	require.NoError(t, err)
	var got likesDoc
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, []string{"u2"}, got.Likes)
	assert.Equal(t, int64(3), doc.Version)
}

func TestRepo_UpdateMissing(t *testing.T) {
	repo := newRepo(t)

	err := repo.Update(context.Background(), scope().Doc("nope"), docstore.Fields{"owner": "u1"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_QueryFiltersAndOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	col := scope()

	require.NoError(t, repo.Set(ctx, col.Doc("b"), likesDoc{Owner: "u1"}))
	require.NoError(t, repo.Set(ctx, col.Doc("a"), likesDoc{Owner: "u2"}))
	require.NoError(t, repo.Set(ctx, col.Doc("c"), likesDoc{Owner: "u1"}))
	require.NoError(t, repo.Set(ctx, docstore.Path(col.Doc("c").String()+"/sub/x"), likesDoc{Owner: "u1"}))

	docs, err := repo.Query(ctx, col, docstore.Where("owner", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID())
	assert.Equal(t, "c", docs[1].ID())

	unowned, err := repo.Query(ctx, col, docstore.Where("owner", ""))
	require.NoError(t, err)
	assert.Empty(t, unowned)
}

func TestRepo_GetAllKeepsRequestOrder(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	col := scope()
	require.NoError(t, repo.Set(ctx, col.Doc("x"), likesDoc{}))
	require.NoError(t, repo.Set(ctx, col.Doc("y"), likesDoc{}))

	docs, err := repo.GetAll(ctx, []docstore.Path{col.Doc("y"), col.Doc("missing"), col.Doc("x")})

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "y", docs[0].ID())
	assert.Equal(t, "x", docs[1].ID())
}

func TestRepo_DeleteIdempotent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	path := scope().Doc("gone")
	require.NoError(t, repo.Set(ctx, path, likesDoc{}))

	require.NoError(t, repo.Delete(ctx, path))
	require.NoError(t, repo.Delete(ctx, path))

	_, err := repo.Get(ctx, path)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_RunTransactionRollsBack(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	col := scope()
	a, b := col.Doc("a"), col.Doc("b")
	require.NoError(t, repo.Set(ctx, a, likesDoc{Owner: "u1"}))
	sentinel := errors.New("abort")

	err := repo.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if _, err := tx.Get(ctx, a); err != nil {
			return err
		}
		if err := tx.Delete(ctx, a); err != nil {
			return err
		}
		if err := tx.Set(ctx, b, likesDoc{Owner: "u2"}); err != nil {
			return err
		}
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	_, err = repo.Get(ctx, a)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, b)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_SetRejectsInvalidPath(t *testing.T) {
	repo := newRepo(t)

	err := repo.Set(context.Background(), docstore.Path("entries"), likesDoc{})

	assert.ErrorIs(t, err, domain.ErrValidation)
}
