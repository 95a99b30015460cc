package crashlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLogID = "6b6f3b0c-2d2e-4c55-8a43-0f3cb1a7e4d2"

func flushCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDeliveryGateway_SendsMessages(t *testing.T) {
	client := &fakeClient{}
	g := NewDeliveryGateway(client, nil, 10, nil, nil)
	defer g.Close()

	g.Send(testLogID, &TelemetryMessage{ID: "1", Title: "one"})
	g.Send(testLogID, &TelemetryMessage{ID: "2", Title: "two"})

	require.NoError(t, g.Flush(flushCtx(t)))

	msgs := client.getMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Title)
	assert.Equal(t, "two", msgs[1].Title)
}

func TestDeliveryGateway_FailureReportedToCallback(t *testing.T) {
	sendErr := errors.New("connection refused")
	client := &fakeClient{sendErr: sendErr}

	var mu sync.Mutex
	var gotMsg *TelemetryMessage
	var gotErr error
	onError := func(msg *TelemetryMessage, err error) {
		mu.Lock()
		defer mu.Unlock()
		gotMsg, gotErr = msg, err
	}

	g := NewDeliveryGateway(client, onError, 10, nil, nil)
	defer g.Close()

	msg := &TelemetryMessage{ID: "1", Title: "boom"}
	g.Send(testLogID, msg)
	require.NoError(t, g.Flush(flushCtx(t)))

	mu.Lock()
	defer mu.Unlock()
	assert.Same(t, msg, gotMsg)
	assert.ErrorIs(t, gotErr, sendErr)
}

func TestDeliveryGateway_PanickingCallbacksAreContained(t *testing.T) {
	client := &fakeClient{sendErr: errors.New("down")}
	g := NewDeliveryGateway(client, func(*TelemetryMessage, error) {
		panic("callback bug")
	}, 10, nil, nil)
	defer g.Close()

	g.Send(testLogID, &TelemetryMessage{ID: "1"})
	require.NoError(t, g.Flush(flushCtx(t)))

	// The worker survives and keeps delivering
	g.Send(testLogID, &TelemetryMessage{ID: "2"})
	require.NoError(t, g.Flush(flushCtx(t)))
}

// panickingClient panics on Send.
type panickingClient struct{ fakeClient }

func (c *panickingClient) Send(context.Context, string, *TelemetryMessage) error {
	panic("client bug")
}

func TestDeliveryGateway_ClientPanicBecomesError(t *testing.T) {
	errs := make(chan error, 1)
	g := NewDeliveryGateway(&panickingClient{}, func(_ *TelemetryMessage, err error) {
		errs <- err
	}, 10, nil, nil)
	defer g.Close()

	g.Send(testLogID, &TelemetryMessage{ID: "1"})

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrHookPanicked)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for error callback")
	}
}

func TestDeliveryGateway_InstallationFailureIsSilent(t *testing.T) {
	client := &fakeClient{installErr: errors.New("rejected")}
	called := false
	g := NewDeliveryGateway(client, func(*TelemetryMessage, error) { called = true }, 10, nil, nil)

	g.RegisterInstallation(testLogID, &Installation{Name: "Orders"})
	require.NoError(t, g.Flush(flushCtx(t)))
	require.NoError(t, g.Close())

	assert.False(t, called)
}

func TestDeliveryGateway_DropsOldestWhenFull(t *testing.T) {
	client := &fakeClient{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	g := NewDeliveryGateway(client, nil, 2, metrics, nil)
	defer g.Close()

	g.Send(testLogID, &TelemetryMessage{Title: "m1"})
	select {
	case <-client.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never picked up the first message")
	}

	// Worker is blocked on m1; the queue holds two more
	g.Send(testLogID, &TelemetryMessage{Title: "m2"})
	g.Send(testLogID, &TelemetryMessage{Title: "m3"})
	g.Send(testLogID, &TelemetryMessage{Title: "m4"})

	close(client.release)
	require.NoError(t, g.Flush(flushCtx(t)))

	var titles []string
	for _, m := range client.getMessages() {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"m1", "m3", "m4"}, titles)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Messages.WithLabelValues(OutcomeDropped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Messages.WithLabelValues(OutcomeSent)))
}

func TestDeliveryGateway_FlushHonorsContext(t *testing.T) {
	client := &fakeClient{release: make(chan struct{})}
	g := NewDeliveryGateway(client, nil, 10, nil, nil)
	defer func() {
		close(client.release)
		g.Close()
	}()

	g.Send(testLogID, &TelemetryMessage{Title: "stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Flush(ctx), context.DeadlineExceeded)
}

func TestDeliveryGateway_CloseDrainsAndClosesClient(t *testing.T) {
	client := &fakeClient{}
	g := NewDeliveryGateway(client, nil, 50, nil, nil)

	for i := 0; i < 20; i++ {
		g.Send(testLogID, &TelemetryMessage{})
	}
	require.NoError(t, g.Close())

	assert.Len(t, client.getMessages(), 20)
	assert.True(t, client.isClosed())

	// Sends after close are discarded
	g.Send(testLogID, &TelemetryMessage{})
	require.NoError(t, g.Flush(flushCtx(t)))
	assert.Len(t, client.getMessages(), 20)

	// Close is idempotent
	require.NoError(t, g.Close())
}
