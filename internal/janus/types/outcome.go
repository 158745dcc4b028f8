package types

import "time"

// Status classifies a single admission decision for the display.
type Status string

const (
	StatusNone                  Status = "none"
	StatusGranted               Status = "granted"
	StatusDeniedUnknown         Status = "denied-unknown"
	StatusDeniedAlreadyAdmitted Status = "denied-already-admitted"
	StatusStoreError            Status = "store-error"

	// StatusUnavailable is shown when the capture device cannot be acquired.
	// It is terminal for the station instance.
	StatusUnavailable Status = "unavailable"
)

var defaultMessages = map[Status]string{
	StatusNone:                  "",
	StatusGranted:               "✅ Access Granted! Welcome.",
	StatusDeniedUnknown:         "❌ Access Denied! ID not found.",
	StatusDeniedAlreadyAdmitted: "⚠️ Already checked in.",
	StatusStoreError:            "⚠️ Could not reach the attendee list. Try again.",
	StatusUnavailable:           "📷 Camera unavailable. Check permissions and reload.",
}

// Message returns the operator-facing text for s.
func (s Status) Message() string {
	return defaultMessages[s]
}

// Denied reports whether s turns the holder away.
func (s Status) Denied() bool {
	return s == StatusDeniedUnknown || s == StatusDeniedAlreadyAdmitted
}

// Result is an Outcome plus what the Presentation Sink needs to render it.
type Result struct {
	Status      Status      `json:"status"`
	Message     string      `json:"message"`
	Fingerprint Fingerprint `json:"-"`

	// Committed is false only when a grant was shown but the store write
	// failed afterwards.
	Committed bool      `json:"committed"`
	DecidedAt time.Time `json:"decided_at,omitempty"`
}

// NewResult builds a Result carrying the default message for status.
func NewResult(status Status, fp Fingerprint, decidedAt time.Time) Result {
	return Result{
		Status:      status,
		Message:     status.Message(),
		Fingerprint: fp,
		Committed:   true,
		DecidedAt:   decidedAt,
	}
}

// Cleared is the empty Result shown once the display window elapses.
func Cleared() Result {
	return Result{Status: StatusNone, Committed: true}
}
