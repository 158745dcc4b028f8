package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
)

var (
	ErrInvalidStationID = errors.New("station_id is required")
	ErrUnknownStation   = errors.New("station is not enabled")
)

// StationRegistry decides which stations may talk to the record store.
type StationRegistry struct {
	store store.StationStore
}

func NewStationRegistry(st store.StationStore) *StationRegistry {
	return &StationRegistry{store: st}
}

// Admit checks stationID and notes that it was seen, known or not.
func (r *StationRegistry) Admit(ctx context.Context, stationID string) error {
	stationID = strings.TrimSpace(stationID)
	if stationID == "" {
		return ErrInvalidStationID
	}

	known, err := r.store.IsKnown(ctx, stationID)
	if err != nil {
		return err
	}
	_ = r.store.MarkSeen(ctx, stationID, known, time.Now().UTC())

	if !known {
		return ErrUnknownStation
	}
	return nil
}
