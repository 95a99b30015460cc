// errors.go defines the sentinel errors returned by the crashlog package.

package crashlog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned by Init when the API key is empty.
	ErrInvalidAPIKey = errors.New("crashlog: api key is required")

	// ErrInvalidLogID is returned by Init when the log ID is the nil UUID.
	ErrInvalidLogID = errors.New("crashlog: log id is required")

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("crashlog: session already initialized")

	// ErrNotInitialized is returned by operations that need a prior Init.
	ErrNotInitialized = errors.New("crashlog: session not initialized")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("crashlog: session closed")

	// ErrHookPanicked wraps a panic raised by a host-supplied hook.
	ErrHookPanicked = errors.New("crashlog: hook panicked")
)

// ConfigError reports invalid configuration detected by Init.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("crashlog: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// hookPanic converts a recovered hook panic into an error wrapping ErrHookPanicked.
func hookPanic(hook string, recovered any) error {
	return fmt.Errorf("%w: %s: %s", ErrHookPanicked, hook, formatRecovered(recovered))
}
