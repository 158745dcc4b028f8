package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// ErrNotFound is returned when no attendee record exists for a fingerprint.
// It is an expected condition, not a store failure.
var ErrNotFound = errors.New("attendee not found")

// SchemaError reports a record that came back in an unexpected shape.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected attendee schema: field %q %s", e.Field, e.Reason)
}

// AttendeeStore is the authoritative record store keyed by fingerprint.
//
// No implementation may cache records: admission state can change between
// two scans of the same card.
type AttendeeStore interface {
	Fetch(ctx context.Context, fp types.Fingerprint) (types.AttendeeRecord, error)

	// MarkAdmitted sets checked_in only if it is currently false. changed is
	// false when the record was already admitted. A missing record yields
	// ErrNotFound.
	MarkAdmitted(ctx context.Context, fp types.Fingerprint) (changed bool, err error)
}
