package display

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// Terminal prints each Result as one coloured line.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	station string
	now     func() time.Time

	granted *color.Color
	denied  *color.Color
	warn    *color.Color
	idle    *color.Color
}

func NewTerminal(w io.Writer, station string, noColor bool) *Terminal {
	t := &Terminal{
		w:       w,
		station: station,
		now:     time.Now,
		granted: color.New(color.FgGreen, color.Bold),
		denied:  color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		idle:    color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{t.granted, t.denied, t.warn, t.idle} {
			c.DisableColor()
		}
	}
	return t
}

func (t *Terminal) Present(res types.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stamp := t.now().Format("15:04:05")
	switch res.Status {
	case types.StatusGranted:
		line := res.Message
		if !res.Committed {
			line += " (not saved, tell the desk)"
		}
		t.granted.Fprintf(t.w, "[%s] %s  %s\n", stamp, t.station, line)
	case types.StatusDeniedUnknown, types.StatusDeniedAlreadyAdmitted:
		t.denied.Fprintf(t.w, "[%s] %s  %s\n", stamp, t.station, res.Message)
	case types.StatusStoreError, types.StatusUnavailable:
		t.warn.Fprintf(t.w, "[%s] %s  %s\n", stamp, t.station, res.Message)
	default:
		t.idle.Fprintf(t.w, "[%s] %s  %s\n", stamp, t.station, "Ready. Point the camera at the ID card barcode.")
	}
}

// String is for log lines.
func (t *Terminal) String() string { return fmt.Sprintf("terminal(%s)", t.station) }
