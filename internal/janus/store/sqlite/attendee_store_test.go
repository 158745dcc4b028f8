package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/BrandonDHaskell/Janus/internal/janus/fingerprint"
	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	sqlitestore "github.com/BrandonDHaskell/Janus/internal/janus/store/sqlite"
)

// ═══════════════════════════════════════════════════════════════════════════
// Fetch
// ═══════════════════════════════════════════════════════════════════════════

func TestAttendeeStore_Fetch_Found(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	fp := fingerprint.MustOf("PRN123")
	seedStudent(t, conn, fp, false)

	as := sqlitestore.NewAttendeeStore(conn, w)
	rec, err := as.Fetch(context.Background(), fp)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rec.ID != fp {
		t.Errorf("expected id=%s, got %s", fp, rec.ID)
	}
	if rec.CheckedIn {
		t.Error("expected checked_in=false")
	}
}

func TestAttendeeStore_Fetch_NotFound(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAttendeeStore(conn, newTestWriter(t, conn))

	_, err := as.Fetch(context.Background(), fingerprint.MustOf("unknown-id"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// MarkAdmitted — conditional write
// ═══════════════════════════════════════════════════════════════════════════

func TestAttendeeStore_MarkAdmitted_FlipsOnce(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	fp := fingerprint.MustOf("PRN123")
	seedStudent(t, conn, fp, false)
	as := sqlitestore.NewAttendeeStore(conn, w)
	ctx := context.Background()

	changed, err := as.MarkAdmitted(ctx, fp)
	if err != nil {
		t.Fatalf("MarkAdmitted: %v", err)
	}
	if !changed {
		t.Error("expected first MarkAdmitted to change the record")
	}

	changed, err = as.MarkAdmitted(ctx, fp)
	if err != nil {
		t.Fatalf("second MarkAdmitted: %v", err)
	}
	if changed {
		t.Error("expected second MarkAdmitted to be a no-op")
	}

	var checkedAt sql.NullInt64
	if err := conn.QueryRowContext(ctx,
		`SELECT checked_in_at_ms FROM students WHERE id = ?`, string(fp),
	).Scan(&checkedAt); err != nil {
		t.Fatalf("query: %v", err)
	}
	if !checkedAt.Valid {
		t.Error("expected checked_in_at_ms to be set")
	}

	rec, err := as.Fetch(ctx, fp)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !rec.CheckedIn {
		t.Error("expected checked_in=true after admission")
	}
}

func TestAttendeeStore_MarkAdmitted_NotFound(t *testing.T) {
	conn := openTestDB(t)
	as := sqlitestore.NewAttendeeStore(conn, newTestWriter(t, conn))

	_, err := as.MarkAdmitted(context.Background(), fingerprint.MustOf("ghost"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttendeeStore_MarkAdmitted_ConcurrentSingleWinner(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	fp := fingerprint.MustOf("PRN123")
	seedStudent(t, conn, fp, false)
	as := sqlitestore.NewAttendeeStore(conn, w)

	const racers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := as.MarkAdmitted(context.Background(), fp)
			if err != nil {
				t.Errorf("MarkAdmitted: %v", err)
				return
			}
			if changed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly one admission, got %d", winners)
	}
}
