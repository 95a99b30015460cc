// Package noop turns delivery off. The session still records breadcrumbs
// and runs its hooks, but nothing leaves the process.
package noop

import (
	"context"

	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
)

type discard struct{}

// New returns a client that accepts and drops everything. Close may be
// called any number of times.
func New() crashlog.DeliveryClient { return discard{} }

func (discard) Send(context.Context, string, *crashlog.TelemetryMessage) error { return nil }

func (discard) RegisterInstallation(context.Context, string, *crashlog.Installation) error {
	return nil
}

func (discard) Close() error { return nil }
