package store

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// AdmissionEvent captures a single validation outcome for the audit log.
type AdmissionEvent struct {
	EventID     string
	StationID   string
	Fingerprint types.Fingerprint
	Status      types.Status
	Committed   bool
	DecidedAt   time.Time
}

// AdmissionEventStore persists outcomes as an append-only audit log.
type AdmissionEventStore interface {
	RecordEvent(ctx context.Context, ev AdmissionEvent) error
}

// EventPruneStore is implemented by audit logs that support retention.
type EventPruneStore interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
