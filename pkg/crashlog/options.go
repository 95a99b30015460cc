// options.go defines process configuration and session collaborators.

package crashlog

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaximumBreadcrumbs is used when Options.MaximumBreadcrumbs is not positive.
const DefaultMaximumBreadcrumbs = 10

// Options is set once before Init and treated as read-only afterwards.
// All callbacks are optional; a nil callback is a no-op.
type Options struct {
	// APIKey authenticates against the remote service. Required.
	APIKey string

	// LogID identifies the log messages are stored in. Must not be uuid.Nil.
	LogID uuid.UUID

	// Application is put on every message and on the installation.
	Application string

	// MaximumBreadcrumbs bounds the in-memory history (default 10).
	MaximumBreadcrumbs int

	// OnMessage decorates messages that survive OnFilter.
	OnMessage func(msg *TelemetryMessage)

	// OnFilter drops a message when it returns true.
	OnFilter func(msg *TelemetryMessage) bool

	// OnError is called when delivering a message fails.
	OnError func(msg *TelemetryMessage, err error)

	// OnInstallation decorates the installation payload before it is registered.
	OnInstallation func(inst *Installation)

	// Environment holds application-level configuration values reported
	// with the installation.
	Environment []Item

	// ConfigFiles are reported with the installation after scrubbing.
	ConfigFiles []ConfigFile
}

// Validate checks the required fields.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return &ConfigError{Field: "APIKey", Err: ErrInvalidAPIKey}
	}
	if o.LogID == uuid.Nil {
		return &ConfigError{Field: "LogID", Err: ErrInvalidLogID}
	}
	return nil
}

func (o *Options) maximumBreadcrumbs() int {
	if o.MaximumBreadcrumbs <= 0 {
		return DefaultMaximumBreadcrumbs
	}
	return o.MaximumBreadcrumbs
}

// SessionOption configures collaborators of a Session.
type SessionOption func(*sessionConfig)

// DeliveryFactory constructs the delivery client during Init.
type DeliveryFactory func(apiKey string) (DeliveryClient, error)

type sessionConfig struct {
	factory      DeliveryFactory
	logger       *slog.Logger
	metrics      *Metrics
	sources      []EventSource
	windows      WindowProvider
	machine      MachineInfoProvider
	scrubber     *Scrubber
	floodGuard   *FloodGuard
	queueSize    int
	buildVersion string
}

// WithDeliveryClient uses client for every delivery.
func WithDeliveryClient(client DeliveryClient) SessionOption {
	return func(c *sessionConfig) {
		c.factory = func(string) (DeliveryClient, error) { return client, nil }
	}
}

// WithDeliveryFactory builds the delivery client from the API key during Init.
func WithDeliveryFactory(factory DeliveryFactory) SessionOption {
	return func(c *sessionConfig) {
		c.factory = factory
	}
}

// WithLogger sets the logger used for library diagnostics.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithMetrics records capture counters on m.
func WithMetrics(m *Metrics) SessionOption {
	return func(c *sessionConfig) {
		c.metrics = m
	}
}

// WithEventSource subscribes the session to src during Init.
func WithEventSource(src EventSource) SessionOption {
	return func(c *sessionConfig) {
		c.sources = append(c.sources, src)
	}
}

// WithWindowProvider supplies the active window used for URL and geometry enrichment.
func WithWindowProvider(p WindowProvider) SessionOption {
	return func(c *sessionConfig) {
		c.windows = p
	}
}

// WithMachineInfo adds host-specific machine descriptors to every message.
func WithMachineInfo(p MachineInfoProvider) SessionOption {
	return func(c *sessionConfig) {
		c.machine = p
	}
}

// WithScrubber redacts messages and installations using cfg.
func WithScrubber(cfg ScrubberConfig) SessionOption {
	return func(c *sessionConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing enables scrubbing with production-safe defaults.
func WithDefaultScrubbing() SessionOption {
	return func(c *sessionConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

// WithFloodGuard throttles repeated captures of the same error.
func WithFloodGuard(g *FloodGuard) SessionOption {
	return func(c *sessionConfig) {
		c.floodGuard = g
	}
}

// WithQueueSize sets the maximum number of pending deliveries (default: 100).
func WithQueueSize(size int) SessionOption {
	return func(c *sessionConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithApplicationVersion overrides the application version reported with the installation.
func WithApplicationVersion(version string) SessionOption {
	return func(c *sessionConfig) {
		c.buildVersion = version
	}
}
