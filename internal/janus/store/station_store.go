package store

import (
	"context"
	"time"
)

type StationRecord struct {
	StationID string
	Known     bool
	LastSeen  time.Time
}

type StationStore interface {
	IsKnown(ctx context.Context, stationID string) (bool, error)
	MarkSeen(ctx context.Context, stationID string, known bool, t time.Time) error
}
