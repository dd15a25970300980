package storage

import (
	"context"
	"os"
	"testing"
)

// Set GENESEARCH_POSTGRES_DSN to a scratch database to run these tests.
func postgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("GENESEARCH_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GENESEARCH_POSTGRES_DSN not set")
	}
	return dsn
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := postgresDSN(t)
	ctx := context.Background()

	store := NewPostgresStore(dsn)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		db, err := store.getDB()
		if err == nil {
			_, _ = db.ExecContext(ctx, `DELETE FROM genesearch_snapshots WHERE run_id IN ('run-a', 'run-b')`)
			_, _ = db.ExecContext(ctx, `DELETE FROM genesearch_runs WHERE id IN ('run-a', 'run-b')`)
		}
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestPostgresStoreRequiresInit(t *testing.T) {
	store := NewPostgresStore("postgres://localhost/unused")
	if _, _, err := store.GetRun(context.Background(), "r"); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
