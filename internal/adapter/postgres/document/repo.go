// Package document implements the document gateway on a single PostgreSQL
// table holding JSONB bodies keyed by path.
package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/promptboard/internal/adapter/postgres"
	"github.com/heartmarshall/promptboard/internal/docstore"
	"github.com/heartmarshall/promptboard/internal/domain"
)

const table = "documents"

var columns = []string{"path", "data", "version", "created_at", "updated_at"}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo is the PostgreSQL document gateway.
type Repo struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// New creates a new document repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, tx: postgres.NewTxManager(pool)}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Get returns the document at path or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	return r.get(ctx, path, false)
}

func (r *Repo) get(ctx context.Context, path docstore.Path, forUpdate bool) (docstore.Document, error) {
	q := psql.Select(columns...).From(table).Where(squirrel.Eq{"path": path.String()})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return docstore.Document{}, fmt.Errorf("document.Get: build query: %w", err)
	}

	row := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...)
	doc, err := scanDocument(row)
	if err != nil {
		return docstore.Document{}, postgres.MapError(err, path.String())
	}
	return doc, nil
}

// GetAll returns the documents that exist among paths, in request order.
func (r *Repo) GetAll(ctx context.Context, paths []docstore.Path) ([]docstore.Document, error) {
	if len(paths) == 0 {
		return []docstore.Document{}, nil
	}

	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = p.String()
	}

	sql, args, err := psql.Select(columns...).From(table).Where(squirrel.Eq{"path": keys}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("document.GetAll: build query: %w", err)
	}

	found, err := r.query(ctx, sql, args)
	if err != nil {
		return nil, postgres.MapError(err, "batch")
	}

	byPath := make(map[docstore.Path]docstore.Document, len(found))
	for _, d := range found {
		byPath[d.Path] = d
	}

	out := make([]docstore.Document, 0, len(found))
	for _, p := range paths {
		if d, ok := byPath[p]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// Query returns the direct children of collection matching every filter,
// ordered by creation time then path. A filter on a missing or null field
// matches the empty string; non-string values never match.
func (r *Repo) Query(ctx context.Context, collection docstore.CollectionPath, filters ...docstore.Filter) ([]docstore.Document, error) {
	q := psql.Select(columns...).From(table).
		Where(squirrel.Eq{"collection": collection.String()}).
		OrderBy("created_at", "path")

	for _, f := range filters {
		q = q.Where(
			"COALESCE(data->>?::text, '') = ? AND COALESCE(jsonb_typeof(data->?::text), 'null') IN ('string', 'null')",
			f.Field, f.Value, f.Field,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("document.Query: build query: %w", err)
	}

	docs, err := r.query(ctx, sql, args)
	if err != nil {
		return nil, postgres.MapError(err, collection.String())
	}
	return docs, nil
}

func (r *Repo) query(ctx context.Context, sql string, args []any) ([]docstore.Document, error) {
	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []docstore.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Set creates or overwrites the document at path.
func (r *Repo) Set(ctx context.Context, path docstore.Path, value any) error {
	data, err := encodeFor(path, value)
	if err != nil {
		return err
	}

	sql, args, err := psql.Insert(table).
		Columns("path", "collection", "data").
		Values(path.String(), path.Collection().String(), []byte(data)).
		Suffix("ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, version = " + table + ".version + 1, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("document.Set: build query: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, path.String())
	}
	return nil
}

// Update merges fields into an existing document. The row is locked while
// transforms are applied.
func (r *Repo) Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := r.get(ctx, path, true)
		if err != nil {
			return err
		}

		data, err := docstore.Apply(doc.Data, fields)
		if err != nil {
			return err
		}
		return r.write(ctx, path, data)
	})
}

func (r *Repo) write(ctx context.Context, path docstore.Path, data json.RawMessage) error {
	sql, args, err := psql.Update(table).
		Set("data", []byte(data)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"path": path.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("document.Update: build query: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, path.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", path, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the document at path. Deleting a missing document succeeds.
func (r *Repo) Delete(ctx context.Context, path docstore.Path) error {
	sql, args, err := psql.Delete(table).Where(squirrel.Eq{"path": path.String()}).ToSql()
	if err != nil {
		return fmt.Errorf("document.Delete: build query: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, path.String())
	}
	return nil
}

// RunTransaction runs fn inside a database transaction. Documents read
// through tx stay locked until commit.
func (r *Repo) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		return fn(ctx, pgTx{repo: r})
	})
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("document.Ping: %w", err)
	}
	return nil
}

type pgTx struct {
	repo *Repo
}

func (t pgTx) Get(ctx context.Context, path docstore.Path) (docstore.Document, error) {
	return t.repo.get(ctx, path, true)
}

func (t pgTx) Set(ctx context.Context, path docstore.Path, value any) error {
	return t.repo.Set(ctx, path, value)
}

func (t pgTx) Update(ctx context.Context, path docstore.Path, fields docstore.Fields) error {
	return t.repo.Update(ctx, path, fields)
}

func (t pgTx) Delete(ctx context.Context, path docstore.Path) error {
	return t.repo.Delete(ctx, path)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func scanDocument(row pgx.Row) (docstore.Document, error) {
	var (
		d    docstore.Document
		path string
		data []byte
	)
	if err := row.Scan(&path, &data, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return docstore.Document{}, err
	}
	d.Path = docstore.Path(path)
	d.Data = json.RawMessage(data)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func encodeFor(path docstore.Path, value any) (json.RawMessage, error) {
	if !path.Valid() {
		return nil, domain.NewValidationError("path", fmt.Sprintf("invalid document path %q", path))
	}
	return docstore.Encode(value)
}
