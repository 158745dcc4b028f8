package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/BrandonDHaskell/Janus/internal/db"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// The shared-cache URI keeps the database alive for the lifetime of the
	// pool; each test gets its own name.
	conn, err := db.OpenDSN(context.Background(), db.MemoryDSN("test_"+t.Name()))
	if err != nil {
		t.Fatalf("openTestDB: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(w.Close)
	return w
}

func seedStudent(t *testing.T, conn *sql.DB, fp types.Fingerprint, checkedIn bool) {
	t.Helper()
	v := 0
	if checkedIn {
		v = 1
	}
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO students(id, checked_in, created_at_ms) VALUES (?, ?, 0);`, string(fp), v)
	if err != nil {
		t.Fatalf("seedStudent(%s): %v", fp.Short(), err)
	}
}
