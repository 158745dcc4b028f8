package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// LoadFingerprintFile reads a JSON array of hex fingerprints, the format the
// provisioning export produces.
func LoadFingerprintFile(path string) ([]types.Fingerprint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	out := make([]types.Fingerprint, 0, len(raw))
	for i, s := range raw {
		fp := types.Fingerprint(strings.ToLower(strings.TrimSpace(s)))
		if !fp.Valid() {
			return nil, fmt.Errorf("seed file %s: entry %d is not a sha-256 hex digest", path, i)
		}
		out = append(out, fp)
	}
	return out, nil
}

// SeedAttendees inserts not-yet-admitted records for fps.  Existing rows,
// admitted or not, are left untouched.  Returns how many rows were added.
func SeedAttendees(ctx context.Context, db *sql.DB, fps []types.Fingerprint) (int64, error) {
	now := time.Now().UTC().UnixMilli()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO students(id, checked_in, created_at_ms)
VALUES (?, 0, ?);`)
	if err != nil {
		return 0, fmt.Errorf("seed prepare: %w", err)
	}
	defer stmt.Close()

	var added int64
	for _, fp := range fps {
		res, err := stmt.ExecContext(ctx, string(fp), now)
		if err != nil {
			return 0, fmt.Errorf("seed student %s: %w", fp.Short(), err)
		}
		n, _ := res.RowsAffected()
		added += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed commit: %w", err)
	}
	return added, nil
}
