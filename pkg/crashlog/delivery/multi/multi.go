// Package multi delivers every message and installation to a list of
// clients, for example a remote log plus a local stderr mirror.
package multi

import (
	"context"
	"errors"

	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
)

type fanout []crashlog.DeliveryClient

// New returns a client that forwards to each of clients in order.
// Nil entries are skipped. A failing client does not stop the others;
// their errors are joined.
func New(clients ...crashlog.DeliveryClient) crashlog.DeliveryClient {
	f := make(fanout, 0, len(clients))
	for _, c := range clients {
		if c != nil {
			f = append(f, c)
		}
	}
	return f
}

func (f fanout) each(call func(crashlog.DeliveryClient) error) error {
	var errs []error
	for _, c := range f {
		if err := call(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) Send(ctx context.Context, logID string, msg *crashlog.TelemetryMessage) error {
	return f.each(func(c crashlog.DeliveryClient) error {
		return c.Send(ctx, logID, msg)
	})
}

func (f fanout) RegisterInstallation(ctx context.Context, logID string, inst *crashlog.Installation) error {
	return f.each(func(c crashlog.DeliveryClient) error {
		return c.RegisterInstallation(ctx, logID, inst)
	})
}

func (f fanout) Close() error {
	return f.each(crashlog.DeliveryClient.Close)
}
