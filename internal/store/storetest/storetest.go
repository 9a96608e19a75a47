// Package storetest connects integration tests to a real Postgres.
package storetest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"eventhub/internal/store"
)

// Open returns a migrated database from TEST_DATABASE_URL, or DATABASE_URL,
// and skips the test when neither is set. Tables are shared between
// packages, so tests must use unique ids and keys.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	db, err := store.NewDB(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.Client
}
