package scan

import (
	"context"
	"time"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// Decoder is a capture backend that turns frames into decoded text.
//
// Start must return once capture is running; decode and error callbacks may
// arrive on any goroutine afterwards.  Stop must release the capture handle
// before returning and be safe to call more than once, or before Start.
type Decoder interface {
	Name() string
	Start(ctx context.Context, onDecode func(raw string), onError func(err error)) error
	Stop() error
}

// Pauser is implemented by decoders that can suspend capture while the gate
// is closed.
type Pauser interface {
	Pause() error
	Resume() error
}

// Validator classifies a fingerprint.  service.ValidationEngine is the
// production implementation.
type Validator interface {
	Validate(ctx context.Context, fp types.Fingerprint) types.Result
}

// Sink renders Results.  It reads nothing back from the controller.
type Sink interface {
	Present(res types.Result)
}

// Clock schedules the display-window timer.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }
