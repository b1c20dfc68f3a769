package testhelper

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedDocument inserts a raw document row at path and returns it back to the
// caller. The collection column is derived from the path.
func SeedDocument(t *testing.T, pool *pgxpool.Pool, path string, data map[string]any) string {
	t.Helper()

	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("SeedDocument: marshal: %v", err)
	}

	collection := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		collection = path[:i]
	}

	_, err = pool.Exec(context.Background(),
		`INSERT INTO documents (path, collection, data) VALUES ($1, $2, $3)`,
		path, collection, body,
	)
	if err != nil {
		t.Fatalf("SeedDocument %s: %v", path, err)
	}
	return path
}
