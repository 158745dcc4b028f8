package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/BrandonDHaskell/Janus/internal/db"
	"github.com/BrandonDHaskell/Janus/internal/janus/store"
)

type AdmissionEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAdmissionEventStore(db *sql.DB, writer *dbpkg.Worker) *AdmissionEventStore {
	return &AdmissionEventStore{db: db, writer: writer}
}

func (s *AdmissionEventStore) RecordEvent(ctx context.Context, ev store.AdmissionEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.DecidedAt.IsZero() {
		ev.DecidedAt = time.Now().UTC()
	}

	var committed int
	if ev.Committed {
		committed = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureStation(ctx, tx, ev.StationID, ev.DecidedAt.UTC().UnixMilli()); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO admission_events(
  event_id, station_id, fingerprint, status, committed, decided_at_ms
) VALUES (?, ?, ?, ?, ?, ?);
`,
			ev.EventID, ev.StationID, string(ev.Fingerprint), string(ev.Status),
			committed, ev.DecidedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

// PruneOlderThan deletes audit rows decided before cutoff.  Returns the
// number of rows deleted.
func (s *AdmissionEventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM admission_events
WHERE decided_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
