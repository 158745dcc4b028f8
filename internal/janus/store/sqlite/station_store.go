package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/Janus/internal/db"
)

type StationStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewStationStore(db *sql.DB, writer *dbpkg.Worker) *StationStore {
	return &StationStore{db: db, writer: writer}
}

// IsKnown treats a station as known when an admin has enabled it.
func (s *StationStore) IsKnown(ctx context.Context, stationID string) (bool, error) {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return false, nil
	}

	var enabled int
	err := s.db.QueryRowContext(ctx, `
SELECT enabled FROM stations WHERE station_id = ?;
`, stationID).Scan(&enabled)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsKnown query: %w", err)
	}
	return enabled == 1, nil
}

// MarkSeen ensures the station row exists (even if unknown) and updates
// last_seen.
func (s *StationStore) MarkSeen(ctx context.Context, stationID string, _ bool, t time.Time) error {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureStation(ctx, tx, stationID, ms); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE stations
SET last_seen_at_ms = ?,
    updated_at_ms   = ?
WHERE station_id = ?;
`, ms, ms, stationID); err != nil {
			return fmt.Errorf("MarkSeen update station: %w", err)
		}
		return nil
	})
}

// Enable marks a station as allowed to use the store.
func (s *StationStore) Enable(ctx context.Context, stationID string) error {
	ms := time.Now().UTC().UnixMilli()
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureStation(ctx, tx, stationID, ms); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE stations SET enabled = 1, updated_at_ms = ? WHERE station_id = ?;
`, ms, stationID); err != nil {
			return fmt.Errorf("Enable station: %w", err)
		}
		return nil
	})
}
