package analysis

import (
	"errors"
	"fmt"
)

// Failure taxonomy crossing the pipeline boundary. Callers classify with
// errors.Is; every error is additionally wrapped in a RequestError naming
// the offending request so a UI can report it without aborting the
// session.
var (
	// ErrInsufficientData signals fewer than two usable routes.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidParameter signals an out-of-range algorithm parameter.
	// Invalid input is always reported, never silently corrected.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrAlgorithmFailure signals that the underlying numerical routine
	// failed or did not converge.
	ErrAlgorithmFailure = errors.New("algorithm failure")
)

// RequestError tags a pipeline failure with the request that caused it.
type RequestError struct {
	Request string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %v", e.Request, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func requestErrorf(request string, sentinel error, format string, v ...interface{}) error {
	return &RequestError{
		Request: request,
		Err:     fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, v...)...),
	}
}
