// Package display renders admission Results.  Sinks only consume; they
// never feed anything back into the scan pipeline.
package display

import (
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// Func adapts a plain function to a scan.Sink.
type Func func(types.Result)

func (f Func) Present(res types.Result) { f(res) }

// Multi fans one Result out to several sinks, in order.
type Multi []interface{ Present(types.Result) }

func (m Multi) Present(res types.Result) {
	for _, s := range m {
		s.Present(res)
	}
}

// message is the payload every display receives.
type message struct {
	Status  types.Status `json:"status"`
	Message string       `json:"message"`
}

func toMessage(res types.Result) message {
	st := res.Status
	if st == "" {
		st = types.StatusNone
	}
	return message{Status: st, Message: res.Message}
}
