package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceExhausted signals an allocation or structural failure while
	// growing the pair table or vocabulary store. Fatal; no partial state is
	// meaningful mid-merge.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrCapacityExceeded signals that a vocabulary or symbol-sequence limit
	// was hit. The run continues with the entry capped, but the truncation is
	// a known data-loss surface and must be logged.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrNoProgress signals that the best pair count fell below the merge
	// threshold. Normal termination, not a failure.
	ErrNoProgress         = errors.New("no productive pairs remain")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type TrainError struct {
	Err     error
	Message string
}

func (e *TrainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *TrainError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *TrainError {
	return &TrainError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *TrainError {
	return &TrainError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsFatal reports whether err must abort the whole run. Only structural
// resource failures qualify; capacity caps and the no-progress signal are
// handled by cap-and-continue and normal termination, and everything else is
// retryable.
func IsFatal(err error) bool {
	return errors.Is(err, ErrResourceExhausted) || errors.Is(err, ErrStorageUnavailable)
}
