package gpu

import (
	"github.com/cockroachdb/errors"
)

// Failure kinds. Wrapped errors carry one of these as a mark, so callers test
// with errors.Is regardless of how much context was added on the way up.
var (
	ErrSurfaceSetup = errors.New("presentation surface setup failed")
	ErrAcquire      = errors.New("failed to acquire swapchain image")
	ErrSubmit       = errors.New("failed to submit draw command buffer")
	ErrPresent      = errors.New("failed to present swapchain image")
	ErrRecord       = errors.New("failed to record command buffer")
	ErrGPUTimeout   = errors.New("timed out waiting on the device")
)

// Mark wraps err with msg and tags it with kind. A nil err stays nil.
func Mark(err error, kind error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), kind)
}

// Markf is Mark with a format string.
func Markf(err error, kind error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), kind)
}

// IsFatal reports whether err belongs to the failure taxonomy that ends a
// render loop.
func IsFatal(err error) bool {
	return errors.IsAny(err, ErrSurfaceSetup, ErrAcquire, ErrSubmit, ErrPresent, ErrRecord, ErrGPUTimeout)
}
