// eventsource.go defines the narrow interface between the host GUI framework
// and a session: unhandled errors and user actions flow in, nothing flows out.

package crashlog

import (
	"strings"
	"sync"
	"time"
)

// EventHandler receives host events. Session implements it.
type EventHandler interface {
	OnUnhandledException(err error)
	OnUserAction(b Breadcrumb)
}

// EventSource is a host binding that forwards framework events to handlers.
// Subscribe returns a function that removes the subscription.
type EventSource interface {
	Subscribe(h EventHandler) (unsubscribe func(), err error)
}

// HookSource is an EventSource the host drives directly from its framework
// callbacks (button clicks, window load/unload, dispatcher errors).
// It is safe for concurrent use.
type HookSource struct {
	mu       sync.RWMutex
	handlers map[int]EventHandler
	nextID   int
	ignore   func() bool
	now      func() time.Time
}

// NewHookSource creates an empty HookSource.
func NewHookSource() *HookSource {
	return &HookSource{
		handlers: make(map[int]EventHandler),
		now:      time.Now,
	}
}

// IgnoreExceptionsWhen suppresses Exception while fn returns true,
// e.g. when a debugger is attached.
func (h *HookSource) IgnoreExceptionsWhen(fn func() bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ignore = fn
}

// Subscribe implements EventSource.
func (h *HookSource) Subscribe(handler EventHandler) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.handlers, id)
		})
	}, nil
}

// Exception forwards an unhandled error to every subscriber.
func (h *HookSource) Exception(err error) {
	h.mu.RLock()
	ignore := h.ignore
	h.mu.RUnlock()
	if ignore != nil && ignore() {
		return
	}
	for _, handler := range h.snapshot() {
		handler.OnUnhandledException(err)
	}
}

// Click records a button click. The button name is preferred over its text content.
func (h *HookSource) Click(name, content string) {
	message := name
	if strings.TrimSpace(message) == "" {
		message = content
	}
	h.action(Breadcrumb{
		Timestamp: h.now().UTC(),
		Severity:  SeverityInformation,
		Action:    "Click",
		Message:   message,
	})
}

// Loaded records a window being shown.
func (h *HookSource) Loaded(w Window) {
	h.navigation("Loaded", w)
}

// Unloaded records a window being closed.
func (h *HookSource) Unloaded(w Window) {
	h.navigation("Unloaded", w)
}

func (h *HookSource) navigation(action string, w Window) {
	target := w.Identity()
	if strings.TrimSpace(target) == "" {
		target = "window"
	}
	h.action(Breadcrumb{
		Timestamp: h.now().UTC(),
		Severity:  SeverityInformation,
		Action:    "Navigation",
		Message:   action + " " + target,
	})
}

func (h *HookSource) action(b Breadcrumb) {
	for _, handler := range h.snapshot() {
		handler.OnUserAction(b)
	}
}

func (h *HookSource) snapshot() []EventHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]EventHandler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		out = append(out, handler)
	}
	return out
}
