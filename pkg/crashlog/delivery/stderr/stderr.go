// Package stderr provides a delivery client that prints messages in
// human-readable form. Useful for development and debugging.
package stderr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
)

// Option configures the stderr client.
type Option func(*config)

type config struct {
	verbose bool
	out     io.Writer
}

// WithVerbose enables full details, data and breadcrumbs.
func WithVerbose() Option {
	return func(c *config) {
		c.verbose = true
	}
}

// WithWriter writes to w instead of os.Stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// stderrClient writes messages in human-readable format.
type stderrClient struct {
	mu      sync.Mutex
	verbose bool
	out     io.Writer
}

// New creates a client that writes to stderr.
func New(opts ...Option) crashlog.DeliveryClient {
	cfg := &config{out: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	return &stderrClient{
		verbose: cfg.verbose,
		out:     cfg.out,
	}
}

// Send formats and outputs the message.
func (c *stderrClient) Send(ctx context.Context, logID string, msg *crashlog.TelemetryMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Format: [CRASHLOG] <timestamp> <SEVERITY> <type> in <application> (log: <logID>)
	timestamp := msg.Timestamp.Format("2006-01-02T15:04:05Z07:00")

	var parts []string
	parts = append(parts, fmt.Sprintf("[CRASHLOG] %s %s", timestamp, strings.ToUpper(string(msg.Severity))))
	if msg.Type != "" {
		parts = append(parts, msg.Type)
	}
	if msg.Application != "" {
		parts = append(parts, fmt.Sprintf("in %s", msg.Application))
	}
	parts = append(parts, fmt.Sprintf("(log: %s)", logID))

	fmt.Fprintln(c.out, strings.Join(parts, " "))
	fmt.Fprintf(c.out, "        Title: %s\n", msg.Title)
	if msg.URL != "" {
		fmt.Fprintf(c.out, "        URL: %s\n", msg.URL)
	}

	if !c.verbose {
		return nil
	}
	if msg.Detail != "" {
		fmt.Fprintf(c.out, "        Detail:\n")
		for _, line := range strings.Split(msg.Detail, "\n") {
			fmt.Fprintf(c.out, "          %s\n", line)
		}
	}
	for _, item := range msg.Data {
		fmt.Fprintf(c.out, "        Data: %s=%s\n", item.Key, item.Value)
	}
	for _, b := range msg.Breadcrumbs {
		fmt.Fprintf(c.out, "        Breadcrumb: %s %s %s %s\n",
			b.Timestamp.Format("15:04:05.000"), b.Severity, b.Action, b.Message)
	}
	return nil
}

// RegisterInstallation prints a one-line summary of the installation.
func (c *stderrClient) RegisterInstallation(ctx context.Context, logID string, inst *crashlog.Installation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	assemblies := 0
	for _, l := range inst.Loggers {
		assemblies += len(l.Assemblies)
	}
	fmt.Fprintf(c.out, "[CRASHLOG] installation %s %q registered (log: %s, assemblies: %d)\n",
		inst.Type, inst.Name, logID, assemblies)
	return nil
}

// Close is a no-op for the stderr client.
func (c *stderrClient) Close() error {
	return nil
}
