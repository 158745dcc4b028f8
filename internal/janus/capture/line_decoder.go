// Package capture holds the decode backends a scan.Controller can drive.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// stopGrace bounds how long Stop waits for a blocked reader to return after
// its handle was closed.
const stopGrace = time.Second

// ErrStreamEnded is reported when the code stream hits EOF.
var ErrStreamEnded = errors.New("code stream ended")

// LineDecoder reads one code per line.  Keyboard-wedge and serial barcode
// scanners deliver decoded text this way, as does stdin.
type LineDecoder struct {
	name string
	r    io.Reader

	mu       sync.Mutex
	started  bool
	stopping bool
	done     chan struct{}
}

func NewLineDecoder(name string, r io.Reader) *LineDecoder {
	if name == "" {
		name = "lines"
	}
	return &LineDecoder{name: name, r: r}
}

func (d *LineDecoder) Name() string { return d.name }

func (d *LineDecoder) Start(ctx context.Context, onDecode func(string), onError func(error)) error {
	if d.r == nil {
		return fmt.Errorf("%s: no input stream", d.name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("%s: already started", d.name)
	}
	d.started = true
	d.done = make(chan struct{})

	go d.loop(ctx, onDecode, onError)
	return nil
}

func (d *LineDecoder) loop(ctx context.Context, onDecode func(string), onError func(error)) {
	defer close(d.done)

	sc := bufio.NewScanner(d.r)
	for sc.Scan() {
		if ctx.Err() != nil || d.isStopping() {
			return
		}
		onDecode(sc.Text())
	}

	if d.isStopping() || ctx.Err() != nil {
		return
	}
	if err := sc.Err(); err != nil {
		onError(err)
		return
	}
	onError(ErrStreamEnded)
}

func (d *LineDecoder) isStopping() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopping
}

// Stop closes the underlying stream when it is closable and waits briefly
// for the reader goroutine.
func (d *LineDecoder) Stop() error {
	d.mu.Lock()
	if d.stopping {
		d.mu.Unlock()
		return nil
	}
	d.stopping = true
	done := d.done
	d.mu.Unlock()

	var err error
	if c, ok := d.r.(io.Closer); ok {
		err = c.Close()
	}

	if done != nil {
		select {
		case <-done:
		case <-time.After(stopGrace):
		}
	}
	return err
}
