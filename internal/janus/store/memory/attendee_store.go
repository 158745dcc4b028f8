package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// AttendeeStore is an in-memory attendee table for tests and dev stations.
type AttendeeStore struct {
	mu      sync.RWMutex
	records map[types.Fingerprint]bool
	writes  int
}

// NewAttendeeStore seeds the store with not-yet-admitted fingerprints.
func NewAttendeeStore(fps ...types.Fingerprint) *AttendeeStore {
	s := &AttendeeStore{records: make(map[types.Fingerprint]bool, len(fps))}
	for _, fp := range fps {
		s.records[fp] = false
	}
	return s
}

func (s *AttendeeStore) Fetch(_ context.Context, fp types.Fingerprint) (types.AttendeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkedIn, ok := s.records[fp]
	if !ok {
		return types.AttendeeRecord{}, store.ErrNotFound
	}
	return types.AttendeeRecord{ID: fp, CheckedIn: checkedIn}, nil
}

func (s *AttendeeStore) MarkAdmitted(_ context.Context, fp types.Fingerprint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	checkedIn, ok := s.records[fp]
	if !ok {
		return false, store.ErrNotFound
	}
	s.writes++
	if checkedIn {
		return false, nil
	}
	s.records[fp] = true
	return true, nil
}

// Put inserts or overwrites a record.  Test/seed helper; the core never
// calls it.
func (s *AttendeeStore) Put(rec types.AttendeeRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.CheckedIn
}

// Writes returns how many MarkAdmitted calls reached an existing record.
// Test-only helper.
func (s *AttendeeStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
