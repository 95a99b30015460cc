// cli.go defines the crashlog commands: send, install and validate.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog/config"
	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog/delivery/httpapi"
	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog/delivery/stderr"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "crashlog",
		Usage:   "Send test errors and installations to a telemetry log",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a TOML config file", EnvVars: []string{"CRASHLOG_CONFIG"}},
			&cli.BoolFlag{Name: "stderr", Usage: "Print to stderr instead of posting to the endpoint"},
			&cli.BoolFlag{Name: "debug", Usage: "Log library diagnostics to stderr"},
		},
		Commands: []*cli.Command{
			sendCmd(),
			installCmd(),
			validateCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// sendCmd creates the send command.
func sendCmd() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Capture a test error and deliver it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Value: "Test error from crashlog CLI", Usage: "Error message"},
			&cli.StringSliceFlag{Name: "breadcrumb", Aliases: []string{"b"}, Usage: "Breadcrumb message (repeatable)"},
			&cli.StringSliceFlag{Name: "data", Aliases: []string{"d"}, Usage: "key=value data pair (repeatable)"},
			&cli.DurationFlag{Name: "wait", Value: 10 * time.Second, Usage: "How long to wait for delivery"},
		},
		Action: func(c *cli.Context) error {
			var failed atomic.Pointer[error]
			session, err := openSession(c, func(_ *crashlog.TelemetryMessage, err error) {
				failed.Store(&err)
			})
			if err != nil {
				return err
			}
			defer session.Close()

			for _, b := range c.StringSlice("breadcrumb") {
				session.AddBreadcrumb(crashlog.Breadcrumb{Action: "Log", Message: b})
			}
			for _, kv := range c.StringSlice("data") {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid --data %q, want key=value", kv)
				}
				session.SetProperty(key, value)
			}

			session.Log(errors.New(c.String("message")))
			if err := flush(session, c.Duration("wait")); err != nil {
				return err
			}
			if v := failed.Load(); v != nil {
				return fmt.Errorf("delivery failed: %w", *v)
			}
			fmt.Fprintln(c.App.Writer, "message delivered")
			return nil
		},
	}
}

// installCmd creates the install command.
func installCmd() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Register the installation descriptor only",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "wait", Value: 10 * time.Second, Usage: "How long to wait for registration"},
		},
		Action: func(c *cli.Context) error {
			session, err := openSession(c, nil)
			if err != nil {
				return err
			}
			defer session.Close()
			if err := flush(session, c.Duration("wait")); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "installation queued")
			return nil
		},
	}
}

// validateCmd creates the validate command.
func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the configuration without sending anything",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "log %s, application %q, %d breadcrumbs\n",
				opts.LogID, opts.Application, cfg.MaximumBreadcrumbs)
			return nil
		},
	}
}

// openSession loads the configuration and initializes a session.
func openSession(c *cli.Context, onError func(*crashlog.TelemetryMessage, error)) (*crashlog.Session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts.OnError = onError

	logger := slog.New(slog.DiscardHandler)
	if c.Bool("debug") {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	sessionOpts := []crashlog.SessionOption{
		crashlog.WithLogger(logger),
		crashlog.WithQueueSize(cfg.QueueSize),
		crashlog.WithApplicationVersion(Version),
	}
	if c.Bool("stderr") || cfg.Endpoint == "" {
		sessionOpts = append(sessionOpts, crashlog.WithDeliveryClient(stderr.New(stderr.WithVerbose(), stderr.WithWriter(c.App.ErrWriter))))
	} else {
		httpOpts := []httpapi.Option{
			httpapi.WithEndpoint(cfg.Endpoint),
			httpapi.WithTimeout(cfg.Timeout.Duration),
		}
		if cfg.Gzip {
			httpOpts = append(httpOpts, httpapi.WithGzip())
		}
		sessionOpts = append(sessionOpts, crashlog.WithDeliveryFactory(httpapi.Factory(httpOpts...)))
	}

	session := crashlog.New(opts, sessionOpts...)
	if err := session.Init(); err != nil {
		return nil, err
	}
	return session, nil
}

func flush(session *crashlog.Session, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := session.Flush(ctx); err != nil {
		return fmt.Errorf("waiting for delivery: %w", err)
	}
	return nil
}
