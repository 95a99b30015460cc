// installation.go registers the running application's environment once at startup.

package crashlog

import (
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
)

// InstallationType tags installations registered by this client.
const InstallationType = "desktop-go"

// LoggerType identifies this client in the installation logger descriptor.
const LoggerType = "crashlog-go"

// Process environment variables reported with an installation.
var (
	envPrefixes = []string{"GO", "CRASHLOG_"}
	envNames    = map[string]bool{
		"LANG":                   true,
		"TZ":                     true,
		"OS":                     true,
		"PROCESSOR_ARCHITECTURE": true,
		"NUMBER_OF_PROCESSORS":   true,
	}
)

// InstallationReporter builds and registers the installation descriptor.
// Nothing it does can fail Init: every error is discarded.
type InstallationReporter struct {
	opts       *Options
	appVersion string
	scrubber   *Scrubber
	gateway    *DeliveryGateway
	metrics    *Metrics
	logger     *slog.Logger

	environ   func() []string
	buildInfo func() (*debug.BuildInfo, bool)
}

// Report builds the installation, lets the host decorate it, and queues
// its registration.
func (r *InstallationReporter) Report() {
	var inst *Installation
	ok := bestEffort(r.logger, "build installation", func() error {
		inst = r.Build()
		if r.opts.OnInstallation != nil {
			if err := callHook("OnInstallation", func() { r.opts.OnInstallation(inst) }); err != nil {
				return err
			}
		}
		if r.scrubber != nil {
			r.scrubber.ScrubInstallation(inst)
		}
		return nil
	})
	if !ok {
		r.metrics.installation(OutcomeFailed)
		return
	}
	r.gateway.RegisterInstallation(r.opts.LogID.String(), inst)
}

// Build constructs the installation descriptor.
func (r *InstallationReporter) Build() *Installation {
	logger := LoggerInfo{
		Type: LoggerType,
		Properties: []Item{
			{Key: "ClientVersion", Value: ClientVersion},
			{Key: "GoVersion", Value: runtime.Version()},
			{Key: "MaximumBreadcrumbs", Value: strconv.Itoa(r.opts.maximumBreadcrumbs())},
		},
		ConfigFiles:          r.configFiles(),
		Assemblies:           r.assemblies(),
		EnvironmentVariables: r.environment(),
	}
	return &Installation{
		Type:    InstallationType,
		Name:    r.opts.Application,
		Loggers: []LoggerInfo{logger},
	}
}

// configFiles copies the configured files with secrets scrubbed from their contents.
func (r *InstallationReporter) configFiles() []ConfigFile {
	if len(r.opts.ConfigFiles) == 0 {
		return nil
	}
	scrubber := r.scrubber
	if scrubber == nil {
		scrubber = NewScrubber(DefaultScrubberConfig())
	}
	out := make([]ConfigFile, len(r.opts.ConfigFiles))
	for i, f := range r.opts.ConfigFiles {
		out[i] = ConfigFile{Name: f.Name, Content: scrubber.ScrubText(f.Content)}
	}
	return out
}

// assemblies lists the main module, its dependencies and the Go runtime.
func (r *InstallationReporter) assemblies() []Assembly {
	out := []Assembly{{Name: "go", Version: runtime.Version()}}
	info, ok := r.buildInfo()
	if !ok || info == nil {
		return out
	}
	if info.Main.Path != "" {
		version := info.Main.Version
		if r.appVersion != "" {
			version = r.appVersion
		}
		out = append(out, Assembly{Name: info.Main.Path, Version: version})
	}
	for _, dep := range info.Deps {
		if dep.Replace != nil {
			dep = dep.Replace
		}
		out = append(out, Assembly{Name: dep.Path, Version: dep.Version})
	}
	return out
}

// environment merges application configuration values with allowlisted
// process environment variables. Names that look sensitive are skipped.
func (r *InstallationReporter) environment() []Item {
	var out []Item
	for _, item := range r.opts.Environment {
		if !looksSensitive(item.Key) {
			out = append(out, item)
		}
	}

	var proc []Item
	for _, kv := range r.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !reportedEnv(name) || looksSensitive(name) {
			continue
		}
		proc = append(proc, Item{Key: name, Value: value})
	}
	sort.Slice(proc, func(i, j int) bool { return proc[i].Key < proc[j].Key })
	return append(out, proc...)
}

func reportedEnv(name string) bool {
	if envNames[name] {
		return true
	}
	for _, prefix := range envPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func looksSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// defaultEnviron is os.Environ, indirected for tests.
var defaultEnviron = os.Environ
