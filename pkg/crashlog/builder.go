// builder.go turns a captured error and ambient context into a TelemetryMessage.

package crashlog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// MessageBuilder constructs telemetry messages. Building never fails:
// enrichment that errors or panics is left out of the message.
type MessageBuilder struct {
	store       *BreadcrumbStore
	properties  *Properties
	windows     WindowProvider
	machine     MachineInfoProvider
	application string
	userAgent   string
	startTime   time.Time
	logger      *slog.Logger

	now      func() time.Time
	hostname func() string
	user     func() string
}

// Build creates a message for err. err may be nil.
// The breadcrumb store is drained into the message.
func (b *MessageBuilder) Build(ctx context.Context, err error) *TelemetryMessage {
	if isNilError(err) {
		err = nil
	}
	root := RootCause(err)

	msg := &TelemetryMessage{
		ID:          uuid.NewString(),
		Timestamp:   b.now().UTC(),
		Detail:      detailOf(err),
		Type:        TypeName(root),
		Title:       DefaultTitle,
		Severity:    SeverityError,
		Source:      sourceOf(root),
		Application: b.application,
		Breadcrumbs: b.store.Flush(),
		ServerVariables: []Item{
			{Key: "User-Agent", Value: b.userAgent},
		},
	}
	if root != nil && root.Error() != "" {
		msg.Title = root.Error()
	}

	if u, ok := UserFromContext(ctx); ok {
		msg.User = u
	} else {
		bestEffort(b.logger, "user", func() error {
			msg.User = b.user()
			return nil
		})
	}
	bestEffort(b.logger, "hostname", func() error {
		msg.Hostname = b.hostname()
		return nil
	})

	var data []Item
	data = append(data, b.properties.Items()...)
	data = append(data, DataFromContext(ctx)...)
	bestEffort(b.logger, "error data", func() error {
		data = append(data, errorData(err)...)
		return nil
	})

	var window Window
	haveWindow := b.windows != nil && bestEffort(b.logger, "active window", func() error {
		var werr error
		window, werr = b.windows.ActiveWindow()
		return werr
	})
	if haveWindow {
		data = append(data, geometryData(window)...)
	}
	msg.URL = b.resolveURL(err, window, haveWindow)

	bestEffort(b.logger, "machine info", func() error {
		data = append(data, machineData(b.startTime)...)
		return nil
	})
	if b.machine != nil {
		bestEffort(b.logger, "host machine info", func() error {
			items, merr := b.machine.MachineInfo()
			if merr != nil {
				return merr
			}
			data = append(data, items...)
			return nil
		})
	}

	msg.Data = withoutDispatcherMarkers(data)
	return msg
}

// resolveURL prefers the active window identity and falls back to the
// location of a parse error.
func (b *MessageBuilder) resolveURL(err error, window Window, haveWindow bool) string {
	if haveWindow {
		if id := window.Identity(); id != "" {
			return id
		}
	}
	var pe *ParseError
	if errors.As(err, &pe) && pe != nil {
		return pe.URI
	}
	return ""
}

func withoutDispatcherMarkers(items []Item) []Item {
	out := items[:0]
	for _, item := range items {
		if !isDispatcherMarker(item) {
			out = append(out, item)
		}
	}
	return out
}
