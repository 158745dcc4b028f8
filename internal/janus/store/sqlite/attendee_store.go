package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/Janus/internal/db"
	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// AttendeeStore reads and admits rows of the students table.
type AttendeeStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendeeStore(db *sql.DB, writer *dbpkg.Worker) *AttendeeStore {
	return &AttendeeStore{db: db, writer: writer}
}

func (s *AttendeeStore) Fetch(ctx context.Context, fp types.Fingerprint) (types.AttendeeRecord, error) {
	var checkedIn int
	err := s.db.QueryRowContext(ctx, `
SELECT checked_in FROM students WHERE id = ?;
`, string(fp)).Scan(&checkedIn)

	if errors.Is(err, sql.ErrNoRows) {
		return types.AttendeeRecord{}, store.ErrNotFound
	}
	if err != nil {
		return types.AttendeeRecord{}, fmt.Errorf("Fetch query: %w", err)
	}
	if checkedIn != 0 && checkedIn != 1 {
		return types.AttendeeRecord{}, &store.SchemaError{Field: "checked_in", Reason: fmt.Sprintf("holds %d", checkedIn)}
	}

	return types.AttendeeRecord{ID: fp, CheckedIn: checkedIn == 1}, nil
}

// MarkAdmitted flips checked_in with a conditional UPDATE so two stations
// racing on the same card cannot both observe a successful admission.
func (s *AttendeeStore) MarkAdmitted(ctx context.Context, fp types.Fingerprint) (bool, error) {
	nowMs := time.Now().UTC().UnixMilli()

	var changed bool
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE students
SET checked_in = 1,
    checked_in_at_ms = ?
WHERE id = ? AND checked_in = 0;
`, nowMs, string(fp))
		if err != nil {
			return fmt.Errorf("MarkAdmitted update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("MarkAdmitted rows: %w", err)
		}
		if n == 1 {
			changed = true
			return nil
		}

		// Nothing updated: either already admitted or missing.
		var exists int
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id = ?;`, string(fp)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("MarkAdmitted lookup: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
