// Package api provides a local, read-only HTTP status API and a WebSocket
// door event stream for the garage door controller.
//
// Commands are only accepted over MQTT. This server reports health, door
// positions and session counters, and relays door pulses and sensor reads
// to WebSocket subscribers as they happen.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-garage/internal/door"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-garage/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DoorReader reads one door's position. *door.Actuator satisfies it.
type DoorReader interface {
	QueryStatus() (door.State, error)
}

// SessionReporter exposes the MQTT session. *session.Controller satisfies it.
type SessionReporter interface {
	State() session.State
	Stats() session.Stats
}

// LinkReporter exposes the network link. *network.Supervisor satisfies it.
type LinkReporter interface {
	IsConnected() bool
}

// HealthChecker is implemented by infrastructure clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Doors    map[door.ID]DoorReader
	Session  SessionReporter
	Network  LinkReporter
	MQTT     HealthChecker
	InfluxDB HealthChecker // optional
	Hub      *Hub          // optional; created by Start when nil
	Version  string
}

// Server is the HTTP status server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	doors     map[door.ID]DoorReader
	session   SessionReporter
	network   LinkReporter
	mqtt      HealthChecker
	influx    HealthChecker
	version   string
	startTime time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	hub      *Hub
	cancel   context.CancelFunc // stops the hub on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if len(deps.Doors) == 0 {
		return nil, fmt.Errorf("doors are required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		doors:     deps.Doors,
		session:   deps.Session,
		network:   deps.Network,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		version:   deps.Version,
		hub:       deps.Hub,
		startTime: time.Now(),
	}, nil
}

// Hub returns the WebSocket hub, creating it if needed. Register it as a
// door recorder so pulses and sensor reads reach subscribers.
func (s *Server) Hub() *Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hub == nil {
		s.hub = NewHub(s.cfg.WebSocket, s.logger)
	}
	return s.hub
}

// Start binds the listener and serves in a background goroutine.
//
// Parameters:
//   - ctx: Parent of the hub's lifetime (not used for listener lifetime)
//
// Returns:
//   - error: If the listener cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	hub := s.Hub()

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	hubCtx, cancel := context.WithCancel(ctx)
	go hub.Run(hubCtx)

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("API server starting", "address", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
