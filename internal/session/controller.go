package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-garage/internal/router"
)

// State is the session's connection state.
type State int

// Session states.
const (
	Disconnected State = iota
	Connected
)

// String returns "connected" or "disconnected".
func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Transport is the messaging client the controller drives.
// *mqtt.Client satisfies it.
type Transport interface {
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	Open() error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Dispatcher routes one inbound message. *router.Router satisfies it.
type Dispatcher interface {
	Dispatch(msg router.InboundMessage) (router.Reply, bool, error)
	Topics() []string
}

// NetworkWaiter blocks until the network link is usable.
// *network.Supervisor satisfies it.
type NetworkWaiter interface {
	WaitConnected(ctx context.Context) error
}

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Stats are running counters for the lifetime of the controller.
type Stats struct {
	Connects          uint64
	Disconnects       uint64
	Bursts            uint64
	SubscribeFailures uint64
	Dispatched        uint64
	Replies           uint64
	Faults            uint64
}

// Controller binds the transport to the router.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - HandleMessage calls are serialised; a pulse blocks later messages.
//   - Subscribing never holds the dispatch lock, so a message handler
//     blocked in a pulse cannot stall subscription acknowledgements.
type Controller struct {
	transport  Transport
	dispatcher Dispatcher
	network    NetworkWaiter

	availabilityTopic string

	mu      sync.Mutex
	state   State
	live    int // sessions connected and not yet reported lost
	started bool
	stats   Stats
	onFault func(error)
	logger  Logger

	dispatchMu sync.Mutex
}

// New creates a controller. network may be nil when the link is always up.
func New(transport Transport, dispatcher Dispatcher, network NetworkWaiter) *Controller {
	return &Controller{
		transport:  transport,
		dispatcher: dispatcher,
		network:    network,
		state:      Disconnected,
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

// SetOnFault sets the handler for hardware faults reported by dispatch.
func (c *Controller) SetOnFault(handler func(error)) {
	c.mu.Lock()
	c.onFault = handler
	c.mu.Unlock()
}

// SetAvailabilityTopic enables a retained "online" publish after every
// subscription burst. Must be called before Start.
func (c *Controller) SetAvailabilityTopic(topic string) {
	c.mu.Lock()
	c.availabilityTopic = topic
	c.mu.Unlock()
}

// Start waits for the network and opens the session. It returns once the
// transport has started connecting; the transport retries on its own and
// HandleConnect runs when a session comes up.
//
// Parameters:
//   - ctx: bounds the wait for the network only
//
// Returns:
//   - error: ctx error while waiting, ErrAlreadyStarted, or ErrOpenFailed
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	if c.network != nil {
		c.logInfo("waiting for network")
		if err := c.network.WaitConnected(ctx); err != nil {
			return fmt.Errorf("waiting for network: %w", err)
		}
	}

	c.transport.SetOnConnect(c.HandleConnect)
	c.transport.SetOnDisconnect(c.HandleDisconnect)

	if err := c.transport.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}

	c.logInfo("session opening", "topics", len(c.dispatcher.Topics()))
	return nil
}

// HandleConnect runs on every new session and subscribes every topic in
// table order. Subscribing again on a live session is harmless, so there
// is no dedup: paho may run the new session's connect callback before the
// old session's lost callback.
func (c *Controller) HandleConnect() {
	c.mu.Lock()
	c.live++
	c.state = Connected
	c.stats.Connects++
	availability := c.availabilityTopic
	c.mu.Unlock()

	c.logInfo("session connected")

	var failures uint64
	for _, topic := range c.dispatcher.Topics() {
		if err := c.transport.Subscribe(topic, mqtt.QoSAtMostOnce, c.HandleMessage); err != nil {
			failures++
			c.logWarn("subscribe failed", "topic", topic, "error", err)
			continue
		}
		c.logDebug("subscribed", "topic", topic)
	}

	c.mu.Lock()
	c.stats.Bursts++
	c.stats.SubscribeFailures += failures
	c.mu.Unlock()

	if availability != "" {
		if err := c.transport.Publish(availability, []byte(mqtt.PayloadOnline), mqtt.QoSAtLeastOnce, true); err != nil {
			c.logWarn("availability publish failed", "topic", availability, "error", err)
		}
	}
}

// HandleDisconnect records the end of a session. Subscriptions died with
// it. The state stays Connected while a newer session is still live.
func (c *Controller) HandleDisconnect(err error) {
	c.mu.Lock()
	c.stats.Disconnects++
	if c.live > 0 {
		c.live--
	}
	if c.live == 0 {
		c.state = Disconnected
	}
	state := c.state
	c.mu.Unlock()

	c.logWarn("session lost", "error", err, "state", state.String())
}

// HandleMessage dispatches one inbound message and publishes any reply on
// the same topic at QoS 0, not retained.
//
// Returns:
//   - error: a hardware fault (wrapping router.ErrHardwareFault) or
//     ErrReplyFailed; unknown commands return nil
func (c *Controller) HandleMessage(topic string, payload []byte) error {
	c.dispatchMu.Lock()
	reply, ok, err := c.dispatcher.Dispatch(router.InboundMessage{Topic: topic, Payload: payload})
	if err == nil && ok {
		if pubErr := c.transport.Publish(reply.Topic, reply.Payload, mqtt.QoSAtMostOnce, false); pubErr != nil {
			err = fmt.Errorf("%w: %w", ErrReplyFailed, pubErr)
			ok = false
		}
	}
	c.dispatchMu.Unlock()

	c.mu.Lock()
	c.stats.Dispatched++
	if ok {
		c.stats.Replies++
	}
	fault := err != nil && !isReplyError(err)
	if fault {
		c.stats.Faults++
	}
	onFault := c.onFault
	c.mu.Unlock()

	switch {
	case fault:
		c.logError("hardware fault", "topic", topic, "error", err)
		if onFault != nil {
			onFault(err)
		}
	case err != nil:
		c.logWarn("reply not sent", "topic", topic, "error", err)
	}

	return err
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) getLogger() Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

func (c *Controller) logDebug(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (c *Controller) logInfo(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (c *Controller) logError(msg string, args ...any) {
	if l := c.getLogger(); l != nil {
		l.Error(msg, args...)
	}
}
