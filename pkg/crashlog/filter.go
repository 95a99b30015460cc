// filter.go applies the host's drop predicate and decoration to built messages.

package crashlog

// FilterChain runs the OnFilter and OnMessage hooks.
// Nil hooks are no-ops.
type FilterChain struct {
	OnFilter  func(msg *TelemetryMessage) bool
	OnMessage func(msg *TelemetryMessage)
}

// ShouldDrop reports whether msg must be discarded. A panicking filter
// drops the message and returns the panic as an error.
func (f FilterChain) ShouldDrop(msg *TelemetryMessage) (drop bool, err error) {
	if f.OnFilter == nil {
		return false, nil
	}
	err = callHook("OnFilter", func() {
		drop = f.OnFilter(msg)
	})
	if err != nil {
		return true, err
	}
	return drop, nil
}

// Decorate decorates msg. It must only be called for messages that passed ShouldDrop.
func (f FilterChain) Decorate(msg *TelemetryMessage) error {
	if f.OnMessage == nil {
		return nil
	}
	return callHook("OnMessage", func() {
		f.OnMessage(msg)
	})
}
