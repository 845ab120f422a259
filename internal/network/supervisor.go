package network

import (
	"context"
	"sync"
)

// Event is a link notification delivered to the Supervisor.
type Event int

// Link events.
const (
	// EventStarted reports that the network stack is up and may connect.
	EventStarted Event = iota + 1

	// EventGotAddress reports that the link obtained an address.
	EventGotAddress

	// EventDisconnected reports that the link was lost.
	EventDisconnected
)

// String returns the event name for logging.
func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventGotAddress:
		return "got_address"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ConnectionState is the supervisor's view of the link.
type ConnectionState int

// Connection states.
const (
	Down ConnectionState = iota
	Up
)

// String returns "up" or "down".
func (s ConnectionState) String() string {
	if s == Up {
		return "up"
	}
	return "down"
}

// Link starts a connection attempt. It returns once the attempt has been
// requested; the outcome arrives later as an event.
type Link interface {
	Connect() error
}

// Logger is the logging interface used by the network package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Supervisor owns the connection state and keeps the link connected.
//
// Thread Safety: all methods are safe for concurrent use.
type Supervisor struct {
	link Link

	mu       sync.Mutex
	state    ConnectionState
	ready    chan struct{} // closed while Up
	attempts int

	logger Logger
}

// NewSupervisor creates a supervisor in the Down state.
func NewSupervisor(link Link) *Supervisor {
	return &Supervisor{
		link:  link,
		state: Down,
		ready: make(chan struct{}),
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// HandleEvent applies one link event.
//
//   - EventStarted requests a connection attempt.
//   - EventGotAddress moves to Up and releases WaitConnected callers.
//   - EventDisconnected moves to Down and requests a new attempt.
func (s *Supervisor) HandleEvent(ev Event) {
	switch ev {
	case EventStarted:
		s.attempt()

	case EventGotAddress:
		s.mu.Lock()
		if s.state == Down {
			s.state = Up
			close(s.ready)
		}
		logger := s.logger
		s.mu.Unlock()

		if logger != nil {
			logger.Info("network link up")
		}

	case EventDisconnected:
		s.mu.Lock()
		if s.state == Up {
			s.state = Down
			s.ready = make(chan struct{})
		}
		logger := s.logger
		s.mu.Unlock()

		if logger != nil {
			logger.Warn("network link lost, reconnecting")
		}
		s.attempt()

	default:
		if logger := s.getLogger(); logger != nil {
			logger.Debug("ignoring unknown network event", "event", int(ev))
		}
	}
}

// attempt asks the link to connect. Failures are logged and otherwise
// ignored; the next event drives the next attempt.
func (s *Supervisor) attempt() {
	s.mu.Lock()
	s.attempts++
	logger := s.logger
	s.mu.Unlock()

	if s.link == nil {
		return
	}
	if err := s.link.Connect(); err != nil && logger != nil {
		logger.Warn("network connect request failed", "error", err)
	}
}

// IsConnected reports whether the link currently has an address.
func (s *Supervisor) IsConnected() bool {
	return s.State() == Up
}

// State returns the current connection state.
func (s *Supervisor) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns how many connection attempts have been requested.
func (s *Supervisor) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// WaitConnected blocks until the link is Up or ctx is done.
func (s *Supervisor) WaitConnected(ctx context.Context) error {
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Supervisor) getLogger() Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}
