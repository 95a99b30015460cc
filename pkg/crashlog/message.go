// message.go defines the telemetry message and installation payloads sent to the remote service.

package crashlog

import "time"

// Severity indicates the severity level of a message or breadcrumb.
type Severity string

const (
	SeverityVerbose     Severity = "Verbose"
	SeverityDebug       Severity = "Debug"
	SeverityInformation Severity = "Information"
	SeverityWarning     Severity = "Warning"
	SeverityError       Severity = "Error"
	SeverityFatal       Severity = "Fatal"
)

// DefaultTitle is used when the captured error carries no message text.
const DefaultTitle = "An error occurred"

// Item is an ordered key/value pair.
type Item struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TelemetryMessage is the unit delivered to the remote endpoint.
// A new message is built for every capture and never reused.
type TelemetryMessage struct {
	// ID is a unique identifier for this message (UUID).
	ID string `json:"id,omitempty"`

	// Timestamp is when the capture happened (UTC).
	Timestamp time.Time `json:"dateTime"`

	// Detail is the full error text including the wrapper chain.
	Detail string `json:"detail,omitempty"`

	// Type is the Go type of the root cause.
	Type string `json:"type,omitempty"`

	// Title is the root-cause message. Never empty.
	Title string `json:"title"`

	// Data is ordered contextual key/value pairs.
	Data []Item `json:"data,omitempty"`

	Severity Severity `json:"severity"`

	// Source is where the root cause originated (package path or error-supplied source).
	Source string `json:"source,omitempty"`

	User     string `json:"user,omitempty"`
	Hostname string `json:"hostname,omitempty"`

	// Breadcrumbs are ordered most recent first. Never nil.
	Breadcrumbs []Breadcrumb `json:"breadcrumbs"`

	Application string `json:"application,omitempty"`

	// URL identifies the active window or the markup location of a parse error.
	URL string `json:"url,omitempty"`

	// ServerVariables always carries a User-Agent entry identifying this client.
	ServerVariables []Item `json:"serverVariables,omitempty"`

	// Version and CorrelationID are left for OnMessage decoration.
	Version       string `json:"version,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// DataValue returns the first data value stored under key.
func (m *TelemetryMessage) DataValue(key string) (string, bool) {
	for _, item := range m.Data {
		if item.Key == key {
			return item.Value, true
		}
	}
	return "", false
}

// Assembly is a named, versioned component of the running program.
type Assembly struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ConfigFile is a configuration file registered with an installation.
type ConfigFile struct {
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// LoggerInfo describes the client library that registered an installation.
type LoggerInfo struct {
	Type                 string       `json:"type"`
	Properties           []Item       `json:"properties,omitempty"`
	ConfigFiles          []ConfigFile `json:"configFiles,omitempty"`
	Assemblies           []Assembly   `json:"assemblies,omitempty"`
	EnvironmentVariables []Item       `json:"environmentVariables,omitempty"`
}

// Installation is the one-time environment descriptor registered at startup.
type Installation struct {
	Type    string       `json:"type"`
	Name    string       `json:"name,omitempty"`
	Loggers []LoggerInfo `json:"loggers"`
}
