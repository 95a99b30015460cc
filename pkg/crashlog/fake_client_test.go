package crashlog

import (
	"context"
	"sync"
)

// fakeClient records deliveries and can fail or block on demand.
type fakeClient struct {
	mu         sync.Mutex
	messages   []*TelemetryMessage
	installs   []*Installation
	sendErr    error
	installErr error
	closed     bool

	// started receives once per Send call when non-nil.
	started chan struct{}
	// release blocks Send until closed when non-nil.
	release chan struct{}
}

func (c *fakeClient) Send(ctx context.Context, logID string, msg *TelemetryMessage) error {
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.release != nil {
		<-c.release
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeClient) RegisterInstallation(ctx context.Context, logID string, inst *Installation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installErr != nil {
		return c.installErr
	}
	c.installs = append(c.installs, inst)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) getMessages() []*TelemetryMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*TelemetryMessage, len(c.messages))
	copy(result, c.messages)
	return result
}

func (c *fakeClient) getInstalls() []*Installation {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*Installation, len(c.installs))
	copy(result, c.installs)
	return result
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// dataValue returns the value stored under key, or "" when absent.
func dataValue(m *TelemetryMessage, key string) string {
	v, _ := m.DataValue(key)
	return v
}
