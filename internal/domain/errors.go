package domain

import "fmt"

// Sentinel errors for the relay domain.
var (
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrNotConnected  = fmt.Errorf("not connected")
	ErrFrameDecode   = fmt.Errorf("frame decode failed")
	ErrBackendStatus = fmt.Errorf("backend returned error status")
	ErrPageDriver    = fmt.Errorf("page driver failure")
	ErrTraceStore    = fmt.Errorf("trace store failed")

	// Driver conditions the backend reports as a failed command rather
	// than a transport error.
	ErrNoHistory    = fmt.Errorf("no history entry in that direction")
	ErrNoInputFocus = fmt.Errorf("no input element is focused")
)

// RelayError wraps a sentinel error with context.
type RelayError struct {
	Op     string // operation name (e.g., "Dispatcher.Send")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *RelayError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }

// NewRelayError creates a new RelayError.
func NewRelayError(op string, err error, detail string) *RelayError {
	return &RelayError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
