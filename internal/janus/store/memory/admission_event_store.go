package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
)

// AdmissionEventStore is an in-memory append-only log of outcomes.
// It is intended for use in tests and dev environments.
type AdmissionEventStore struct {
	mu     sync.Mutex
	events []store.AdmissionEvent
}

func NewAdmissionEventStore() *AdmissionEventStore {
	return &AdmissionEventStore{}
}

func (s *AdmissionEventStore) RecordEvent(_ context.Context, ev store.AdmissionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.DecidedAt.IsZero() {
		ev.DecidedAt = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *AdmissionEventStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var deleted int64
	for _, ev := range s.events {
		if ev.DecidedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return deleted, nil
}

// Events returns a copy of all recorded events.  Test-only helper.
func (s *AdmissionEventStore) Events() []store.AdmissionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AdmissionEvent, len(s.events))
	copy(out, s.events)
	return out
}
