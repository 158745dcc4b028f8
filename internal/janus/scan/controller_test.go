package scan_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Janus/internal/janus/fingerprint"
	"github.com/BrandonDHaskell/Janus/internal/janus/scan"
	"github.com/BrandonDHaskell/Janus/internal/janus/service"
	"github.com/BrandonDHaskell/Janus/internal/janus/store/memory"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
	"github.com/BrandonDHaskell/Janus/internal/testutil"
)

const window = 4 * time.Second

// ── Fakes ────────────────────────────────────────────────────────────────────

type fakeDecoder struct {
	mu       sync.Mutex
	startErr error
	onDecode func(string)
	onError  func(error)
	stops    int
	pauses   int
	resumes  int
	paused   bool
}

func (d *fakeDecoder) Name() string { return "fake" }

func (d *fakeDecoder) Start(_ context.Context, onDecode func(string), onError func(error)) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.mu.Lock()
	d.onDecode, d.onError = onDecode, onError
	d.mu.Unlock()
	return nil
}

func (d *fakeDecoder) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDecoder) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pauses++
	d.paused = true
	return nil
}

func (d *fakeDecoder) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumes++
	d.paused = false
	return nil
}

func (d *fakeDecoder) emit(raw string) {
	d.mu.Lock()
	f := d.onDecode
	d.mu.Unlock()
	f(raw)
}

func (d *fakeDecoder) fail(err error) {
	d.mu.Lock()
	f := d.onError
	d.mu.Unlock()
	f(err)
}

func (d *fakeDecoder) counts() (stops, pauses, resumes int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops, d.pauses, d.resumes
}

// countingValidator wraps a real engine, optionally holding each call until
// released.
type countingValidator struct {
	inner scan.Validator
	hold  chan struct{}

	mu    sync.Mutex
	calls int
}

func (v *countingValidator) Validate(ctx context.Context, fp types.Fingerprint) types.Result {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()
	if v.hold != nil {
		<-v.hold
	}
	return v.inner.Validate(ctx, fp)
}

func (v *countingValidator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

type recordingSink struct {
	ch chan types.Result
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ch: make(chan types.Result, 32)}
}

func (s *recordingSink) Present(res types.Result) { s.ch <- res }

func (s *recordingSink) next(t *testing.T) types.Result {
	t.Helper()
	select {
	case res := <-s.ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a presented result")
		return types.Result{}
	}
}

func (s *recordingSink) empty(t *testing.T) {
	t.Helper()
	select {
	case res := <-s.ch:
		t.Fatalf("unexpected presented result %+v", res)
	default:
	}
}

type harness struct {
	ctrl      *scan.Controller
	decoder   *fakeDecoder
	validator *countingValidator
	sink      *recordingSink
	clock     *testutil.ManualClock
	attendees *memory.AttendeeStore
}

func newHarness(t *testing.T, as *memory.AttendeeStore) *harness {
	t.Helper()
	eng := service.NewValidationEngine(as, nil, service.EngineConfig{StationID: "gate-a"}, nil)
	h := &harness{
		decoder:   &fakeDecoder{},
		validator: &countingValidator{inner: eng},
		sink:      newRecordingSink(),
		clock:     testutil.NewManualClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)),
		attendees: as,
	}
	h.ctrl = scan.NewController(scan.Config{
		Decoder:   h.decoder,
		Validator: h.validator,
		Sink:      h.sink,
		Window:    window,
		Clock:     h.clock,
	})
	t.Cleanup(func() { _ = h.ctrl.Close() })
	return h
}

// ── Gate ─────────────────────────────────────────────────────────────────────

func TestController_GrantThenRescanAlreadyAdmitted(t *testing.T) {
	fp := fingerprint.MustOf("PRN123")
	h := newHarness(t, memory.NewAttendeeStore(fp))
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.decoder.emit("PRN123")
	res := h.sink.next(t)
	assert.Equal(t, types.StatusGranted, res.Status)
	assert.Equal(t, scan.StateLocked, h.ctrl.Session().Snapshot().State)

	h.clock.Advance(window)
	assert.Equal(t, types.StatusNone, h.sink.next(t).Status)
	assert.Equal(t, scan.StateIdle, h.ctrl.Session().Snapshot().State)

	h.decoder.emit("PRN123")
	assert.Equal(t, types.StatusDeniedAlreadyAdmitted, h.sink.next(t).Status)
}

func TestController_DropsDecodesWhileLocked(t *testing.T) {
	fp := fingerprint.MustOf("PRN123")
	h := newHarness(t, memory.NewAttendeeStore(fp))
	h.validator.hold = make(chan struct{})
	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Equal(t, scan.AdmissionAccepted, h.ctrl.Submit("PRN123"))

	// In flight: same and different codes are dropped.
	for i := 0; i < 20; i++ {
		assert.Equal(t, scan.AdmissionDropped, h.ctrl.Submit("PRN123"))
		h.decoder.emit("OTHER-CARD")
	}

	close(h.validator.hold)
	assert.Equal(t, types.StatusGranted, h.sink.next(t).Status)

	// Result on display: still dropped.
	for i := 0; i < 5; i++ {
		assert.Equal(t, scan.AdmissionDropped, h.ctrl.Submit("OTHER-CARD"))
	}

	assert.Equal(t, 1, h.validator.Calls())
	snap := h.ctrl.Session().Snapshot()
	assert.EqualValues(t, 1, snap.Accepted)
	assert.EqualValues(t, 45, snap.Dropped)
	assert.True(t, snap.Gate)
}

func TestController_IdleOnlyAfterWindow(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.decoder.emit("nobody")
	assert.Equal(t, types.StatusDeniedUnknown, h.sink.next(t).Status)

	h.clock.Advance(window - time.Millisecond)
	assert.Equal(t, scan.StateLocked, h.ctrl.Session().Snapshot().State)
	h.sink.empty(t)

	h.clock.Advance(time.Millisecond)
	assert.Equal(t, types.StatusNone, h.sink.next(t).Status)
	snap := h.ctrl.Session().Snapshot()
	assert.Equal(t, scan.StateIdle, snap.State)
	assert.False(t, snap.Gate)
	assert.Equal(t, types.StatusNone, snap.Result.Status)
}

func TestController_EmptyCodeIgnored(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Equal(t, scan.AdmissionIgnored, h.ctrl.Submit("   \t"))
	h.decoder.emit("")

	assert.Equal(t, 0, h.validator.Calls())
	snap := h.ctrl.Session().Snapshot()
	assert.Equal(t, scan.StateIdle, snap.State)
	assert.EqualValues(t, 2, snap.Ignored)
	h.sink.empty(t)
}

func TestController_PausesWhileLockedAndResumes(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.decoder.emit("nobody")
	h.sink.next(t)
	_, pauses, resumes := h.decoder.counts()
	assert.Equal(t, 1, pauses)
	assert.Equal(t, 0, resumes)

	h.clock.Advance(window)
	h.sink.next(t)
	_, pauses, resumes = h.decoder.counts()
	assert.Equal(t, 1, pauses)
	assert.Equal(t, 1, resumes)
}

// ── Store failures ───────────────────────────────────────────────────────────

type downStore struct{}

func (downStore) Fetch(context.Context, types.Fingerprint) (types.AttendeeRecord, error) {
	return types.AttendeeRecord{}, errors.New("network unreachable")
}

func (downStore) MarkAdmitted(context.Context, types.Fingerprint) (bool, error) {
	return false, errors.New("network unreachable")
}

func TestController_StoreErrorRecovers(t *testing.T) {
	sink := newRecordingSink()
	clock := testutil.NewManualClock(time.Unix(0, 0))
	ctrl := scan.NewController(scan.Config{
		Decoder:   &fakeDecoder{},
		Validator: service.NewValidationEngine(downStore{}, nil, service.EngineConfig{}, nil),
		Sink:      sink,
		Window:    window,
		Clock:     clock,
	})
	t.Cleanup(func() { _ = ctrl.Close() })
	require.NoError(t, ctrl.Start(context.Background()))

	require.Equal(t, scan.AdmissionAccepted, ctrl.Submit("PRN123"))
	assert.Equal(t, types.StatusStoreError, sink.next(t).Status)

	clock.Advance(window)
	sink.next(t)
	assert.Equal(t, scan.StateIdle, ctrl.Session().Snapshot().State)
	assert.Equal(t, scan.AdmissionAccepted, ctrl.Submit("PRN123"))
}

// ── Device failures ──────────────────────────────────────────────────────────

func TestController_StartFailureIsTerminal(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	h.decoder.startErr = errors.New("permission denied")

	err := h.ctrl.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, scan.ErrDeviceUnavailable)

	var de *scan.DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "fake", de.Backend)

	assert.Equal(t, types.StatusUnavailable, h.sink.next(t).Status)
	assert.Equal(t, scan.StateUnavailable, h.ctrl.Session().Snapshot().State)
	assert.Equal(t, scan.AdmissionUnavailable, h.ctrl.Submit("PRN123"))
	assert.Equal(t, 0, h.validator.Calls())

	stops, _, _ := h.decoder.counts()
	assert.Equal(t, 1, stops)
}

func TestController_RuntimeDeviceErrorReleasesCapture(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.decoder.fail(errors.New("device busy"))
	h.decoder.fail(errors.New("device busy"))

	assert.Equal(t, types.StatusUnavailable, h.sink.next(t).Status)
	h.sink.empty(t)

	assert.Eventually(t, func() bool {
		stops, _, _ := h.decoder.counts()
		return stops == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestController_UnavailableWhileLockedKeepsMessage(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.decoder.emit("nobody")
	assert.Equal(t, types.StatusDeniedUnknown, h.sink.next(t).Status)

	h.decoder.fail(errors.New("unplugged"))
	assert.Equal(t, types.StatusUnavailable, h.sink.next(t).Status)

	h.clock.Advance(window)
	assert.Equal(t, types.StatusUnavailable, h.sink.next(t).Status)
	assert.Equal(t, scan.StateUnavailable, h.ctrl.Session().Snapshot().State)
}

// ── Teardown ─────────────────────────────────────────────────────────────────

func TestController_CloseWhileLocked(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore(fingerprint.MustOf("PRN123")))
	require.NoError(t, h.ctrl.Start(context.Background()))

	h.decoder.emit("PRN123")
	h.sink.next(t)

	require.NoError(t, h.ctrl.Close())
	stops, _, resumes := h.decoder.counts()
	assert.Equal(t, 1, stops)

	// The window timer still fires but must not resume a released device.
	h.clock.Advance(window)
	_, _, resumesAfter := h.decoder.counts()
	assert.Equal(t, resumes, resumesAfter)

	assert.Equal(t, scan.StateClosed, h.ctrl.Session().Snapshot().State)
	assert.Equal(t, scan.AdmissionClosed, h.ctrl.Submit("PRN123"))
	require.NoError(t, h.ctrl.Close())
	stops, _, _ = h.decoder.counts()
	assert.Equal(t, 1, stops)
}

func TestController_CloseWaitsForInflightValidation(t *testing.T) {
	fp := fingerprint.MustOf("PRN123")
	h := newHarness(t, memory.NewAttendeeStore(fp))
	h.validator.hold = make(chan struct{})
	require.NoError(t, h.ctrl.Start(context.Background()))

	require.Equal(t, scan.AdmissionAccepted, h.ctrl.Submit("PRN123"))

	closed := make(chan struct{})
	go func() {
		_ = h.ctrl.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a validation was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(h.validator.hold)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after validation finished")
	}

	rec, err := h.attendees.Fetch(context.Background(), fp)
	require.NoError(t, err)
	assert.True(t, rec.CheckedIn, "in-flight admission must still be recorded")
}

func TestController_StartTwice(t *testing.T) {
	h := newHarness(t, memory.NewAttendeeStore())
	require.NoError(t, h.ctrl.Start(context.Background()))
	assert.ErrorIs(t, h.ctrl.Start(context.Background()), scan.ErrAlreadyStarted)
}
