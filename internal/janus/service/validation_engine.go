package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

const defaultStoreTimeout = 5 * time.Second

// EngineConfig holds the optional parameters for NewValidationEngine.
type EngineConfig struct {
	StationID string

	// StoreTimeout bounds each store round-trip.  A timeout is reported as
	// a store error.  Defaults to 5s.
	StoreTimeout time.Duration

	// Now is overridden in tests.
	Now func() time.Time
}

// ValidationEngine runs the read-decide-write protocol for one fingerprint.
// It holds no per-card state and is safe to share.
type ValidationEngine struct {
	attendees store.AttendeeStore
	events    store.AdmissionEventStore
	logger    *log.Logger

	stationID    string
	storeTimeout time.Duration
	now          func() time.Time
}

// NewValidationEngine wires the engine.  events may be nil when the station
// keeps no audit log.
func NewValidationEngine(as store.AttendeeStore, es store.AdmissionEventStore, cfg EngineConfig, logger *log.Logger) *ValidationEngine {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ValidationEngine{
		attendees:    as,
		events:       es,
		logger:       logger,
		stationID:    strings.TrimSpace(cfg.StationID),
		storeTimeout: timeout,
		now:          now,
	}
}

// Validate classifies fp.  Store failures never escape as errors; they come
// back as a store-error Result.
func (e *ValidationEngine) Validate(ctx context.Context, fp types.Fingerprint) types.Result {
	res := e.decide(ctx, fp)
	e.recordEvent(ctx, res)
	return res
}

func (e *ValidationEngine) decide(ctx context.Context, fp types.Fingerprint) types.Result {
	fetchCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	rec, err := e.attendees.Fetch(fetchCtx, fp)
	cancel()

	switch {
	case errors.Is(err, store.ErrNotFound):
		return types.NewResult(types.StatusDeniedUnknown, fp, e.now())
	case err != nil:
		e.logger.Printf("store fetch failed station=%s fp=%s: %v", e.stationID, fp.Short(), err)
		return types.NewResult(types.StatusStoreError, fp, e.now())
	case rec.CheckedIn:
		return types.NewResult(types.StatusDeniedAlreadyAdmitted, fp, e.now())
	}

	res := types.NewResult(types.StatusGranted, fp, e.now())

	writeCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	changed, err := e.attendees.MarkAdmitted(writeCtx, fp)
	cancel()

	switch {
	case err != nil:
		// The holder is let in; the store does not know it yet.
		res.Committed = false
		e.logger.Printf("ADMISSION NOT PERSISTED station=%s fp=%s: %v", e.stationID, fp.Short(), err)
	case !changed:
		// Another station admitted this card between our read and write.
		e.logger.Printf("admission lost race station=%s fp=%s", e.stationID, fp.Short())
		return types.NewResult(types.StatusDeniedAlreadyAdmitted, fp, res.DecidedAt)
	}
	return res
}

// recordEvent appends the outcome to the audit log.  Failures are logged
// and never change the outcome already decided.
func (e *ValidationEngine) recordEvent(ctx context.Context, res types.Result) {
	if e.events == nil {
		return
	}

	ev := store.AdmissionEvent{
		EventID:     uuid.NewString(),
		StationID:   e.stationID,
		Fingerprint: res.Fingerprint,
		Status:      res.Status,
		Committed:   res.Committed,
		DecidedAt:   res.DecidedAt,
	}

	auditCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	if err := e.events.RecordEvent(auditCtx, ev); err != nil {
		e.logger.Printf("audit write failed station=%s fp=%s status=%s: %v",
			e.stationID, res.Fingerprint.Short(), res.Status, err)
	}
}
