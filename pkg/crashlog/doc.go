// Package crashlog provides error capture for desktop applications.
//
// crashlog turns uncaught errors and panics into telemetry messages enriched
// with a bounded history of recent user actions (breadcrumbs), application
// properties and machine details, and hands them to a delivery client. It is
// built so that telemetry can never crash the host: delivery happens off the
// capturing goroutine and every failure is swallowed or reported through a
// callback.
//
// # Core Components
//
//   - Session: lifecycle owner (New, Init, Log, AddBreadcrumb, Flush, Close)
//   - BreadcrumbStore: bounded history, evicts the oldest timestamp, drained on capture
//   - MessageBuilder: error chain + ambient context -> TelemetryMessage
//   - FilterChain: host OnFilter (drop) and OnMessage (decorate) hooks
//   - DeliveryGateway: queued, non-blocking calls to a DeliveryClient
//   - InstallationReporter: one-shot environment registration during Init
//   - EventSource / HookSource: the narrow binding to a GUI framework
//
// # Quick Start
//
//	hooks := crashlog.NewHookSource()
//	session := crashlog.New(crashlog.Options{
//	    APIKey:      apiKey,
//	    LogID:       logID,
//	    Application: "My App",
//	},
//	    crashlog.WithDeliveryFactory(httpapi.Factory(httpapi.WithEndpoint(endpoint))),
//	    crashlog.WithEventSource(hooks),
//	)
//	if err := session.Init(); err != nil {
//	    log.Fatal(err) // misconfiguration fails fast
//	}
//	defer session.Close()
//
//	// from framework callbacks
//	hooks.Click("SaveButton", "Save")
//	hooks.Exception(err)
//
//	// from goroutines
//	go func() {
//	    defer crashlog.Recover(session)
//	    // work that might panic
//	}()
//
// # Failure Model
//
//   - Init returns a *ConfigError for a missing API key or log ID; nothing is subscribed
//   - Enrichment failures (user, window, machine info) are dropped silently
//   - Delivery failures go to Options.OnError and never reach the caller of Log
//   - Installation registration failures are discarded entirely
package crashlog
