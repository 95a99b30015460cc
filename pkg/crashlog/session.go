// session.go owns the lifecycle of an error-capture session:
// construct, Init once, capture, then Close.

package crashlog

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

const (
	stateNew int32 = iota
	stateInitialized
	stateClosed
)

// Session captures errors and breadcrumbs for one host application.
// All methods are safe for concurrent use. Log and AddBreadcrumb never
// fail from the caller's perspective.
type Session struct {
	opts       Options
	cfg        sessionConfig
	store      *BreadcrumbStore
	properties *Properties
	logger     *slog.Logger
	startTime  time.Time

	mu          sync.Mutex
	state       atomic.Int32
	builder     *MessageBuilder
	filters     FilterChain
	gateway     *DeliveryGateway
	unsubscribe []func()
}

// New creates a session. Nothing is validated or started until Init.
// Breadcrumbs and properties may be recorded before Init.
func New(opts Options, sessionOpts ...SessionOption) *Session {
	cfg := sessionConfig{queueSize: DefaultQueueSize}
	for _, opt := range sessionOpts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Session{
		opts:       opts,
		cfg:        cfg,
		store:      NewBreadcrumbStore(opts.maximumBreadcrumbs()),
		properties: &Properties{},
		logger:     logger,
		startTime:  time.Now(),
	}
}

// Init validates the options, builds the delivery client, subscribes to
// event sources and registers the installation. It returns a *ConfigError
// for invalid options, in which case no event source is subscribed.
// Init may succeed only once; later calls return ErrAlreadyInitialized.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state.Load() {
	case stateInitialized:
		return ErrAlreadyInitialized
	case stateClosed:
		return ErrClosed
	}

	if err := s.opts.Validate(); err != nil {
		return err
	}

	var client DeliveryClient = noopClient{}
	if s.cfg.factory != nil {
		c, err := s.cfg.factory(s.opts.APIKey)
		if err != nil {
			return &ConfigError{Field: "DeliveryClient", Err: err}
		}
		client = c
	}

	s.gateway = NewDeliveryGateway(client, s.opts.OnError, s.cfg.queueSize, s.cfg.metrics, s.logger)
	s.builder = &MessageBuilder{
		store:       s.store,
		properties:  s.properties,
		windows:     s.cfg.windows,
		machine:     s.cfg.machine,
		application: s.opts.Application,
		userAgent:   UserAgent(),
		startTime:   s.startTime,
		logger:      s.logger,
		now:         time.Now,
		hostname:    hostname,
		user:        currentUser,
	}
	s.filters = FilterChain{
		OnFilter:  s.opts.OnFilter,
		OnMessage: s.opts.OnMessage,
	}

	for _, src := range s.cfg.sources {
		unsubscribe, err := src.Subscribe(s)
		if err != nil {
			s.logger.Warn("crashlog: event source subscription failed", "error", err)
			continue
		}
		s.unsubscribe = append(s.unsubscribe, unsubscribe)
	}

	s.state.Store(stateInitialized)

	reporter := &InstallationReporter{
		opts:       &s.opts,
		appVersion: s.cfg.buildVersion,
		scrubber:   s.cfg.scrubber,
		gateway:    s.gateway,
		metrics:    s.cfg.metrics,
		logger:     s.logger,
		environ:    defaultEnviron,
		buildInfo:  debug.ReadBuildInfo,
	}
	reporter.Report()
	return nil
}

// Log captures err. Before Init and after Close it does nothing.
func (s *Session) Log(err error) {
	s.LogContext(context.Background(), err)
}

// LogContext captures err using user and data attached to ctx.
func (s *Session) LogContext(ctx context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("crashlog: capture panicked", "panic", formatRecovered(r))
		}
	}()

	if s.state.Load() != stateInitialized {
		s.logger.Debug("crashlog: capture outside initialized session discarded")
		return
	}

	msg := s.builder.Build(ctx, err)
	s.cfg.metrics.message(OutcomeBuilt)

	if s.cfg.scrubber != nil {
		s.cfg.scrubber.ScrubMessage(msg)
	}

	if s.cfg.floodGuard != nil && !s.cfg.floodGuard.Allow(Fingerprint(msg)) {
		s.cfg.metrics.message(OutcomeThrottled)
		return
	}

	drop, hookErr := s.filters.ShouldDrop(msg)
	if hookErr != nil {
		s.gateway.reportError(msg, hookErr)
	}
	if drop {
		s.cfg.metrics.message(OutcomeFiltered)
		return
	}

	if hookErr := s.filters.Decorate(msg); hookErr != nil {
		s.cfg.metrics.message(OutcomeFailed)
		s.gateway.reportError(msg, hookErr)
		return
	}

	s.gateway.Send(s.opts.LogID.String(), msg)
}

// AddBreadcrumb records b in the bounded history.
func (s *Session) AddBreadcrumb(b Breadcrumb) {
	s.store.Add(b)
	s.cfg.metrics.breadcrumb()
}

// SetProperty attaches key/value to every subsequent message.
func (s *Session) SetProperty(key, value string) {
	s.properties.Set(key, value)
}

// DeleteProperty removes a property set with SetProperty.
func (s *Session) DeleteProperty(key string) {
	s.properties.Delete(key)
}

// OnUnhandledException implements EventHandler.
func (s *Session) OnUnhandledException(err error) {
	s.Log(err)
}

// OnUserAction implements EventHandler.
func (s *Session) OnUserAction(b Breadcrumb) {
	s.AddBreadcrumb(b)
}

// Flush waits until queued deliveries have been attempted or ctx is done.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	gateway := s.gateway
	s.mu.Unlock()
	if gateway == nil {
		return ErrNotInitialized
	}
	return gateway.Flush(ctx)
}

// Close unsubscribes from event sources, drains pending deliveries and
// closes the delivery client. Calling Close more than once is safe.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Swap(stateClosed) == stateClosed {
		return nil
	}
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.unsubscribe = nil
	if s.gateway == nil {
		return nil
	}
	return s.gateway.Close()
}

// noopClient is an internal delivery client used when none is configured,
// kept here to avoid an import cycle with the delivery packages.
type noopClient struct{}

func (noopClient) Send(context.Context, string, *TelemetryMessage) error         { return nil }
func (noopClient) RegisterInstallation(context.Context, string, *Installation) error { return nil }
func (noopClient) Close() error                                                    { return nil }
