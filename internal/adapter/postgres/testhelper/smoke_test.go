package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	pool := SetupTestDB(t)

	path := SeedDocument(t, pool, "users/"+uuid.NewString(), map[string]any{"displayName": "Smoke"})

	var name string
	err := pool.QueryRow(context.Background(),
		`SELECT data->>'displayName' FROM documents WHERE path = $1`, path,
	).Scan(&name)
	if err != nil {
		t.Fatalf("expected document in DB, got error: %v", err)
	}
	if name != "Smoke" {
		t.Fatalf("expected displayName %q, got %q", "Smoke", name)
	}
}
