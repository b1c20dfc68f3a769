package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/promptboard/internal/adapter/postgres"
	"github.com/heartmarshall/promptboard/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/promptboard/internal/domain"
)

func insertDoc(ctx context.Context, q postgres.Querier, path string) error {
	_, err := q.Exec(ctx,
		`INSERT INTO documents (path, collection, data) VALUES ($1, 'txtest', '{}'::jsonb)`,
		path,
	)
	return err
}

func docExists(t *testing.T, pool *pgxpool.Pool, path string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(context.Background(),
		`SELECT EXISTS(SELECT 1 FROM documents WHERE path = $1)`, path,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("docExists query: %v", err)
	}
	return exists
}

func newPath() string { return "txtest/" + uuid.NewString() }

func TestRunInTx_Commit(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	path := newPath()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertDoc(ctx, postgres.QuerierFromCtx(ctx, pool), path)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !docExists(t, pool, path) {
		t.Fatal("expected document to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	path := newPath()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertDoc(ctx, postgres.QuerierFromCtx(ctx, pool), path); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if docExists(t, pool, path) {
		t.Fatal("expected document NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	path := newPath()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if err := insertDoc(ctx, postgres.QuerierFromCtx(ctx, pool), path); err != nil {
				t.Fatalf("insert inside tx failed: %v", err)
			}
			panic("boom")
		})
	}()

	if docExists(t, pool, path) {
		t.Fatal("expected document NOT to exist after panic")
	}
}

func TestRunInTx_NestedJoinsOuter(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	inner := newPath()
	sentinel := errors.New("outer failed")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if !postgres.InTx(ctx) {
			t.Fatal("expected ctx to carry the transaction")
		}
		if err := tm.RunInTx(ctx, func(ctx context.Context) error {
			return insertDoc(ctx, postgres.QuerierFromCtx(ctx, pool), inner)
		}); err != nil {
			t.Fatalf("nested RunInTx: %v", err)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}
	if docExists(t, pool, inner) {
		t.Fatal("nested write should roll back with the outer transaction")
	}
}

func TestQuerierFromCtx_NoTx(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)

	q := postgres.QuerierFromCtx(context.Background(), pool)
	if _, ok := q.(*pgxpool.Pool); !ok {
		t.Fatalf("expected *pgxpool.Pool, got %T", q)
	}
}

func TestRunInTx_ReplaysOnSerializationFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)
	path := newPath()

	attempts := 0
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		attempts++
		if err := insertDoc(ctx, postgres.QuerierFromCtx(ctx, pool), path); err != nil {
			return err
		}
		if attempts == 1 {
			return postgres.MapError(&pgconn.PgError{Code: "40001"}, path)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if !docExists(t, pool, path) {
		t.Fatal("expected document from the replayed attempt")
	}
}

func TestRunInTx_GivesUpAsConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	attempts := 0
	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		attempts++
		return &pgconn.PgError{Code: "40P01"}
	})

	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
