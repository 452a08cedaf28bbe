package detect

import "github.com/pkg/errors"

// ErrDetectionFailure marks a per-frame detector error. Callers treat the
// frame as having no detections.
var ErrDetectionFailure = errors.New("detection failure")

// FailureError carries the underlying cause of a detection failure.
type FailureError struct {
	Err error
}

func (e *FailureError) Error() string {
	return "detection failure: " + e.Err.Error()
}

func (e *FailureError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDetectionFailure) hold for every FailureError.
func (e *FailureError) Is(target error) bool { return target == ErrDetectionFailure }

// Failure wraps err as a detection failure. A nil err stays nil and an
// error that already is a detection failure is returned unchanged.
func Failure(err error) error {
	if err == nil || errors.Is(err, ErrDetectionFailure) {
		return err
	}
	return &FailureError{Err: err}
}
