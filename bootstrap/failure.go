package bootstrap

import "fmt"

// Failure reports which bootstrap stage could not be acquired. The
// original cause is preserved unmodified so callers can classify it
// with errors.Is and errors.As.
type Failure struct {
	Stage string
	Cause error
}

// Error annotates the cause with the failing stage name.
func (f *Failure) Error() string {
	return fmt.Sprintf("bootstrap stage %s: %v", f.Stage, f.Cause)
}

// Unwrap exposes the original stage error.
func (f *Failure) Unwrap() error {
	return f.Cause
}
