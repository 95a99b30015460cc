// delivery.go defines the delivery collaborator and the gateway that calls it
// off the capturing goroutine without ever propagating its failures.

package crashlog

import (
	"context"
	"log/slog"
	"sync"
)

// DeliveryClient transmits messages and installations to the remote service.
// Implementations must be safe for concurrent use.
type DeliveryClient interface {
	// Send stores a message in the log identified by logID.
	Send(ctx context.Context, logID string, msg *TelemetryMessage) error

	// RegisterInstallation records the environment of the running application.
	RegisterInstallation(ctx context.Context, logID string, inst *Installation) error

	// Close releases resources held by the client.
	Close() error
}

// DefaultQueueSize bounds the number of deliveries waiting for the worker.
const DefaultQueueSize = 100

// delivery is a queued unit of work: exactly one of msg and inst is set.
type delivery struct {
	logID string
	msg   *TelemetryMessage
	inst  *Installation
}

// DeliveryGateway hands messages to a DeliveryClient from a background worker.
// Send returns immediately. When the queue is full the oldest pending
// delivery is dropped to make room.
type DeliveryGateway struct {
	client  DeliveryClient
	onError func(msg *TelemetryMessage, err error)
	metrics *Metrics
	logger  *slog.Logger

	queue chan delivery
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
	closeMu   sync.Mutex
	closed    bool

	pendingMu sync.Mutex
	pending   int
	idle      chan struct{}
}

// NewDeliveryGateway starts a gateway around client. onError may be nil.
func NewDeliveryGateway(client DeliveryClient, onError func(*TelemetryMessage, error), queueSize int, metrics *Metrics, logger *slog.Logger) *DeliveryGateway {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	idle := make(chan struct{})
	close(idle)

	g := &DeliveryGateway{
		client:  client,
		onError: onError,
		metrics: metrics,
		logger:  logger,
		queue:   make(chan delivery, queueSize),
		done:    make(chan struct{}),
		idle:    idle,
	}

	g.wg.Add(1)
	go g.processLoop()

	return g
}

// Send queues msg for delivery to logID. Failures are reported to the
// error callback, never to the caller.
func (g *DeliveryGateway) Send(logID string, msg *TelemetryMessage) {
	g.enqueue(delivery{logID: logID, msg: msg})
}

// RegisterInstallation queues inst for registration. Failures are discarded.
func (g *DeliveryGateway) RegisterInstallation(logID string, inst *Installation) {
	g.enqueue(delivery{logID: logID, inst: inst})
}

func (g *DeliveryGateway) enqueue(d delivery) {
	g.closeMu.Lock()
	defer g.closeMu.Unlock()
	if g.closed {
		g.logger.Debug("crashlog: delivery after close discarded")
		return
	}

	g.addPending()
	select {
	case g.queue <- d:
		return
	default:
	}

	// Queue is full - drop oldest and enqueue new
	select {
	case old := <-g.queue:
		g.dropped(old)
	default:
		// Queue was emptied by the worker
	}
	select {
	case g.queue <- d:
	default:
		g.dropped(d)
	}
}

func (g *DeliveryGateway) dropped(d delivery) {
	if d.msg != nil {
		g.metrics.message(OutcomeDropped)
	} else {
		g.metrics.installation(OutcomeDropped)
	}
	g.logger.Warn("crashlog: delivery queue full, dropped oldest")
	g.donePending()
}

// processLoop drains the queue and calls the delivery client.
func (g *DeliveryGateway) processLoop() {
	defer g.wg.Done()
	for {
		select {
		case d := <-g.queue:
			g.deliver(d)
		case <-g.done:
			// Drain remaining deliveries
			for {
				select {
				case d := <-g.queue:
					g.deliver(d)
				default:
					return
				}
			}
		}
	}
}

func (g *DeliveryGateway) deliver(d delivery) {
	defer g.donePending()
	ctx := context.Background()

	if d.inst != nil {
		ok := bestEffort(g.logger, "register installation", func() error {
			return g.client.RegisterInstallation(ctx, d.logID, d.inst)
		})
		if ok {
			g.metrics.installation(OutcomeSent)
		} else {
			g.metrics.installation(OutcomeFailed)
		}
		return
	}

	err := g.send(ctx, d)
	if err == nil {
		g.metrics.message(OutcomeSent)
		return
	}
	g.metrics.message(OutcomeFailed)
	g.logger.Warn("crashlog: message delivery failed", "message_id", d.msg.ID, "error", err)
	g.reportError(d.msg, err)
}

// send calls the client, turning a panic into an error.
func (g *DeliveryGateway) send(ctx context.Context, d delivery) (err error) {
	if hookErr := callHook("Send", func() {
		err = g.client.Send(ctx, d.logID, d.msg)
	}); hookErr != nil {
		return hookErr
	}
	return err
}

// reportError invokes the OnError callback, if any.
func (g *DeliveryGateway) reportError(msg *TelemetryMessage, err error) {
	if g.onError == nil {
		return
	}
	if hookErr := callHook("OnError", func() { g.onError(msg, err) }); hookErr != nil {
		g.logger.Warn("crashlog: error callback failed", "error", hookErr)
	}
}

func (g *DeliveryGateway) addPending() {
	g.pendingMu.Lock()
	defer g.pendingMu.Unlock()
	if g.pending == 0 {
		g.idle = make(chan struct{})
	}
	g.pending++
}

func (g *DeliveryGateway) donePending() {
	g.pendingMu.Lock()
	defer g.pendingMu.Unlock()
	g.pending--
	if g.pending == 0 {
		close(g.idle)
	}
}

// Flush blocks until every queued delivery has been attempted or ctx is done.
func (g *DeliveryGateway) Flush(ctx context.Context) error {
	g.pendingMu.Lock()
	idle := g.idle
	g.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting deliveries, drains the queue and closes the client.
func (g *DeliveryGateway) Close() error {
	var err error
	g.closeOnce.Do(func() {
		g.closeMu.Lock()
		g.closed = true
		g.closeMu.Unlock()

		// Signal done and wait for drain
		close(g.done)
		g.wg.Wait()
		err = g.client.Close()
	})
	return err
}
