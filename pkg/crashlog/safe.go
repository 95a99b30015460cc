// safe.go provides the error boundaries used around best-effort work.

package crashlog

import "log/slog"

// bestEffort runs fn and discards any returned error or panic.
// The outcome is logged at debug level and reported as false.
func bestEffort(logger *slog.Logger, step string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("crashlog: step panicked", "step", step, "panic", formatRecovered(r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		logger.Debug("crashlog: step failed", "step", step, "error", err)
		return false
	}
	return true
}

// callHook runs a host-supplied hook and converts a panic into an error.
func callHook(hook string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = hookPanic(hook, r)
		}
	}()
	fn()
	return nil
}
