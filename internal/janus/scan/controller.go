package scan

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/fingerprint"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// DefaultWindow is how long a Result stays on display before the gate
// reopens.
const DefaultWindow = 4 * time.Second

// Admission says what happened to one submitted code.
type Admission string

const (
	AdmissionAccepted    Admission = "accepted"
	AdmissionDropped     Admission = "dropped"
	AdmissionIgnored     Admission = "ignored"
	AdmissionUnavailable Admission = "unavailable"
	AdmissionClosed      Admission = "closed"
)

// Config holds the collaborators for NewController.
type Config struct {
	Decoder   Decoder
	Validator Validator
	Sink      Sink

	// Session defaults to a fresh one.
	Session *Session

	// Window defaults to DefaultWindow.
	Window time.Duration

	// Clock defaults to the wall clock.
	Clock  Clock
	Logger *log.Logger
}

// Controller runs the scan-validate-display loop for one station.
type Controller struct {
	decoder   Decoder
	validator Validator
	sink      Sink
	session   *Session
	window    time.Duration
	clock     Clock
	logger    *log.Logger

	mu       sync.Mutex
	started  bool
	closed   bool
	paused   bool
	ctx      context.Context
	inflight sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

func NewController(cfg Config) *Controller {
	c := &Controller{
		decoder:   cfg.Decoder,
		validator: cfg.Validator,
		sink:      cfg.Sink,
		session:   cfg.Session,
		window:    cfg.Window,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		ctx:       context.Background(),
	}
	if c.session == nil {
		c.session = NewSession()
	}
	if c.window <= 0 {
		c.window = DefaultWindow
	}
	if c.clock == nil {
		c.clock = realClock{}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	return c
}

func (c *Controller) Session() *Session { return c.session }

// Start acquires the capture device.  On failure the station becomes
// Unavailable, the failure is shown once and the returned error matches
// ErrDeviceUnavailable.  There is no automatic retry.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.started:
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	// Validations are never cancelled, so they must not inherit the
	// caller's cancellation.
	c.ctx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	if err := c.decoder.Start(ctx, c.onDecode, c.onDeviceError); err != nil {
		de := asDeviceError(c.decoder.Name(), err)
		c.fail(de)
		_ = c.stopDecoder()
		return de
	}

	c.logger.Printf("capture started backend=%s window=%s", c.decoder.Name(), c.window)
	return nil
}

// Submit feeds one decoded code into the pipeline.  It never blocks on the
// store: an accepted code is validated on its own goroutine.
func (c *Controller) Submit(raw string) Admission {
	fp, err := fingerprint.Of(raw)
	if err != nil {
		c.session.noteIgnored()
		return AdmissionIgnored
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return AdmissionClosed
	}
	state, ok := c.session.tryLock()
	if !ok {
		c.mu.Unlock()
		if state == StateUnavailable {
			return AdmissionUnavailable
		}
		return AdmissionDropped
	}
	c.inflight.Add(1)
	ctx := c.ctx
	c.mu.Unlock()

	c.pause()
	go c.run(ctx, fp)
	return AdmissionAccepted
}

func (c *Controller) onDecode(raw string) {
	_ = c.Submit(raw)
}

func (c *Controller) onDeviceError(err error) {
	de := asDeviceError(c.decoder.Name(), err)
	if !c.fail(de) {
		return
	}
	// Callbacks may run on the decoder's own goroutine, which Stop waits
	// for.
	go func() { _ = c.stopDecoder() }()
}

func (c *Controller) run(ctx context.Context, fp types.Fingerprint) {
	defer c.inflight.Done()

	res := c.validator.Validate(ctx, fp)
	c.session.setResult(res)

	c.clock.AfterFunc(c.window, c.rearm)
	c.sink.Present(res)

	c.logger.Printf("outcome status=%s fp=%s committed=%t", res.Status, fp.Short(), res.Committed)
}

// rearm runs when the display window elapses.
func (c *Controller) rearm() {
	if c.isClosed() {
		return
	}

	switch c.session.release() {
	case StateIdle:
		c.sink.Present(types.Cleared())
		c.resume()
	case StateUnavailable:
		// Keep the terminal message on screen.
		c.sink.Present(c.session.Snapshot().Result)
	}
}

func (c *Controller) fail(de *DeviceError) bool {
	res := types.NewResult(types.StatusUnavailable, "", time.Now().UTC())
	if !c.session.fail(res) {
		return false
	}
	c.logger.Printf("capture unavailable backend=%s: %v", de.Backend, de.Err)
	c.sink.Present(res)
	return true
}

func (c *Controller) pause() {
	p, ok := c.decoder.(Pauser)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.paused {
		return
	}
	if err := p.Pause(); err != nil {
		c.logger.Printf("capture pause failed backend=%s: %v", c.decoder.Name(), err)
		return
	}
	c.paused = true
}

func (c *Controller) resume() {
	p, ok := c.decoder.(Pauser)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.paused {
		return
	}
	if err := p.Resume(); err != nil {
		c.logger.Printf("capture resume failed backend=%s: %v", c.decoder.Name(), err)
		return
	}
	c.paused = false
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) stopDecoder() error {
	c.stopOnce.Do(func() {
		c.stopErr = c.decoder.Stop()
	})
	return c.stopErr
}

// Close stops capture and releases the device before returning, whatever
// state the station is in.  It then waits for an in-flight validation to
// finish so the store can be closed safely.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.stopDecoder()
	c.session.close()
	c.inflight.Wait()

	c.logger.Printf("capture stopped backend=%s", c.decoder.Name())
	return err
}
