package workflow

import "errors"

// terminalError marks a failure as non-retriable. The event bus terminates
// the run on the first attempt instead of applying its retry policy.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }

func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so that the run fails permanently without retries.
// Use it for data-consistency violations — a referenced entity that does
// not exist will not start existing on the next attempt.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err (or any error it wraps) was marked
// non-retriable via Terminal.
func IsTerminal(err error) bool {
	var te *terminalError
	return errors.As(err, &te)
}
