package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

// ErrNoFrame means the source has nothing new to offer yet.
var ErrNoFrame = errors.New("no new frame")

// ErrNoCode means a frame held no readable code.
var ErrNoCode = errors.New("no code in frame")

// FrameSource yields camera frames.  Open acquires the device; failures
// there are reported as the station being unavailable.
type FrameSource interface {
	Open() error
	Frame() (image.Image, error)
	Close() error
}

// Recognizer finds a barcode in a frame.
type Recognizer interface {
	Recognize(img image.Image) (string, error)
}

// FrameDecoder polls a FrameSource at a fixed rate and decodes each frame.
// A code identical to the previous frame's is not re-reported until the
// decoder is resumed or the code leaves the frame.
type FrameDecoder struct {
	source     FrameSource
	recognizer Recognizer
	interval   time.Duration

	mu      sync.Mutex
	paused  bool
	last    string
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewFrameDecoder(src FrameSource, rec Recognizer, fps int) *FrameDecoder {
	if fps <= 0 {
		fps = 10
	}
	if rec == nil {
		rec = NewZXingRecognizer()
	}
	return &FrameDecoder{
		source:     src,
		recognizer: rec,
		interval:   time.Second / time.Duration(fps),
	}
}

func (d *FrameDecoder) Name() string { return "frames" }

func (d *FrameDecoder) Start(ctx context.Context, onDecode func(string), onError func(error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("frames: already started")
	}

	if err := d.source.Open(); err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	d.running = true

	go d.loop(ctx, onDecode, onError)
	return nil
}

func (d *FrameDecoder) loop(ctx context.Context, onDecode func(string), onError func(error)) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		text, err := d.readFrame()
		switch {
		case err == nil:
		case errors.Is(err, ErrNoFrame):
			continue
		case errors.Is(err, ErrNoCode):
			continue
		default:
			if ctx.Err() == nil {
				onError(err)
			}
			return
		}

		if text != "" {
			onDecode(text)
		}
	}
}

// readFrame returns the text to report for the next frame, or "" when the
// frame repeats the previous code or the decoder is paused.
func (d *FrameDecoder) readFrame() (string, error) {
	d.mu.Lock()
	paused := d.paused
	d.mu.Unlock()
	if paused {
		return "", nil
	}

	img, err := d.source.Frame()
	if err != nil {
		return "", err
	}

	text, err := d.recognizer.Recognize(img)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrNoCode) {
			d.last = ""
		}
		return "", err
	}
	if text == d.last {
		return "", nil
	}
	d.last = text
	return text, nil
}

func (d *FrameDecoder) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = true
	return nil
}

// Resume restarts decoding and forgets the last code, so a card still held
// up to the camera is read again.
func (d *FrameDecoder) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = false
	d.last = ""
	return nil
}

// Stop halts polling and releases the source.  Safe to call before Start
// and more than once.
func (d *FrameDecoder) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	cancel()
	<-done
	return d.source.Close()
}
