package stderr

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
)

func TestStderrClient_ImplementsDeliveryClient(t *testing.T) {
	var _ crashlog.DeliveryClient = New()
}

func testMessage() *crashlog.TelemetryMessage {
	return &crashlog.TelemetryMessage{
		ID:          "evt-123",
		Timestamp:   time.Date(2025, 1, 26, 15, 4, 5, 0, time.UTC),
		Severity:    crashlog.SeverityError,
		Type:        "*fs.PathError",
		Title:       "open orders.db: no such file or directory",
		Application: "Orders",
		URL:         "MainWindow",
		Detail:      "*fs.PathError: open orders.db\n ---> *errors.errorString: no such file",
		Data:        []crashlog.Item{{Key: "Tenant", Value: "acme"}},
		Breadcrumbs: []crashlog.Breadcrumb{{
			Timestamp: time.Date(2025, 1, 26, 15, 4, 1, 0, time.UTC),
			Severity:  crashlog.SeverityInformation,
			Action:    "Click",
			Message:   "SaveButton",
		}},
	}
}

func TestStderrClient_Send_FormatsOutput(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithWriter(&buf))

	if err := c.Send(context.Background(), "log-1", testMessage()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{"[CRASHLOG]", "2025-01-26T15:04:05Z", "ERROR", "*fs.PathError", "in Orders", "(log: log-1)", "Title: open orders.db", "URL: MainWindow"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output should contain %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Breadcrumb:") {
		t.Error("Non-verbose output should not include breadcrumbs")
	}
}

func TestStderrClient_Send_Verbose(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithWriter(&buf), WithVerbose())

	if err := c.Send(context.Background(), "log-1", testMessage()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{"Detail:", "---> *errors.errorString", "Data: Tenant=acme", "Breadcrumb: 15:04:01.000 Information Click SaveButton"} {
		if !strings.Contains(output, want) {
			t.Errorf("Verbose output should contain %q, got:\n%s", want, output)
		}
	}
}

func TestStderrClient_RegisterInstallation(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithWriter(&buf))

	inst := &crashlog.Installation{
		Type: crashlog.InstallationType,
		Name: "Orders",
		Loggers: []crashlog.LoggerInfo{{
			Assemblies: []crashlog.Assembly{{Name: "go"}, {Name: "example.com/orders"}},
		}},
	}
	if err := c.RegisterInstallation(context.Background(), "log-1", inst); err != nil {
		t.Fatalf("RegisterInstallation() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"Orders" registered`) || !strings.Contains(output, "assemblies: 2") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestStderrClient_Close(t *testing.T) {
	if err := New().Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
