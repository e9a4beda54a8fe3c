package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pkordes/atob/migrations"
	"github.com/pkordes/atob/testutil"
)

// TestMain applies all pending migrations to the test database once for the
// whole package so individual tests never need to think about schema state.
func TestMain(m *testing.M) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		// No test DB configured; the tests skip themselves.
		os.Exit(m.Run())
	}

	// goose needs database/sql, not a pgx pool.
	db := testutil.MustOpenSQLDB(os.Getenv("TEST_DATABASE_URL"))

	if _, err := migrations.Up(context.Background(), db); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}
