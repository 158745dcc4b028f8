package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable matches every DeviceError.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	ErrClosed         = errors.New("scan controller closed")
	ErrAlreadyStarted = errors.New("scan controller already started")
)

// DeviceError reports a capture acquisition or runtime failure, such as a
// denied camera permission or a busy device.
type DeviceError struct {
	Backend string
	Err     error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture device %s: %v", e.Backend, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) Is(target error) bool { return target == ErrDeviceUnavailable }

func asDeviceError(backend string, err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}
	return &DeviceError{Backend: backend, Err: err}
}
