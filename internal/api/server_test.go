package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-garage/internal/door"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-garage/internal/session"
)

// mockDoor implements DoorReader for testing.
type mockDoor struct {
	state door.State
	err   error
	reads int
}

func (d *mockDoor) QueryStatus() (door.State, error) {
	d.reads++
	return d.state, d.err
}

type mockSession struct {
	state session.State
	stats session.Stats
}

func (s *mockSession) State() session.State { return s.state }
func (s *mockSession) Stats() session.Stats { return s.stats }

type mockLink struct{ up bool }

func (l *mockLink) IsConnected() bool { return l.up }

type mockHealth struct{ err error }

func (h *mockHealth) HealthCheck(context.Context) error { return h.err }

type fixture struct {
	srv     *Server
	left    *mockDoor
	right   *mockDoor
	session *mockSession
	link    *mockLink
	mqtt    *mockHealth
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    0,
		Timeouts: config.APITimeoutConfig{
			Read:  5,
			Write: 5,
			Idle:  5,
		},
		WebSocket: config.WebSocketConfig{
			MaxMessageSize: 4096,
			PingInterval:   30,
			PongTimeout:    10,
		},
	}
}

func testServer(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		left:    &mockDoor{state: door.Open},
		right:   &mockDoor{state: door.Closed},
		session: &mockSession{state: session.Connected, stats: session.Stats{Connects: 2, Bursts: 2, Dispatched: 7, Replies: 3}},
		link:    &mockLink{up: true},
		mqtt:    &mockHealth{},
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: testConfig(),
		Logger: log,
		Doors: map[door.ID]DoorReader{
			door.Left:  f.left,
			door.Right: f.right,
		},
		Session: f.session,
		Network: f.link,
		MQTT:    f.mqtt,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	f.srv = srv
	return f
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

// =============================================================================
// Constructor
// =============================================================================

func TestNew_RequiresDeps(t *testing.T) {
	log := logging.Default()
	doors := map[door.ID]DoorReader{door.Left: &mockDoor{}}

	tests := []struct {
		name string
		deps Deps
	}{
		{name: "no logger", deps: Deps{Doors: doors, Session: &mockSession{}}},
		{name: "no doors", deps: Deps{Logger: log, Session: &mockSession{}}},
		{name: "no session", deps: Deps{Logger: log, Doors: doors}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

// =============================================================================
// Health
// =============================================================================

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		linkUp     bool
		mqttErr    error
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			linkUp:     true,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"network": "ok", "mqtt": "ok"},
		},
		{
			name:       "mqtt down",
			linkUp:     true,
			mqttErr:    errors.New("mqtt: client not connected"),
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"network": "ok", "mqtt": "mqtt: client not connected"},
		},
		{
			name:       "network down",
			linkUp:     false,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"network": "down", "mqtt": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testServer(t)
			f.link.up = tt.linkUp
			f.mqtt.err = tt.mqttErr

			rec := f.get(t, "/api/v1/health")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			resp := decode[HealthResponse](t, rec)
			if resp.Version != "test" {
				t.Errorf("version = %q, want test", resp.Version)
			}
			for name, want := range tt.wantChecks {
				if got := resp.Checks[name]; got != want {
					t.Errorf("check %s = %q, want %q", name, got, want)
				}
			}
			if _, ok := resp.Checks["influxdb"]; ok {
				t.Error("influxdb check reported while disabled")
			}
		})
	}
}

func TestHandleHealth_InfluxDB(t *testing.T) {
	f := testServer(t)
	f.srv.influx = &mockHealth{err: errors.New("influxdb: not connected")}

	rec := f.get(t, "/api/v1/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp := decode[HealthResponse](t, rec); resp.Checks["influxdb"] == "ok" {
		t.Error("influxdb check = ok, want failure")
	}
}

// =============================================================================
// Doors
// =============================================================================

func TestHandleListDoors(t *testing.T) {
	f := testServer(t)

	rec := f.get(t, "/api/v1/doors")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	resp := decode[struct {
		Doors []DoorStatus `json:"doors"`
		Count int          `json:"count"`
	}](t, rec)

	want := []DoorStatus{{ID: "left", State: "open"}, {ID: "right", State: "closed"}}
	if resp.Count != 2 || len(resp.Doors) != 2 || resp.Doors[0] != want[0] || resp.Doors[1] != want[1] {
		t.Errorf("doors = %+v, want %+v", resp.Doors, want)
	}
	if f.left.reads != 1 || f.right.reads != 1 {
		t.Errorf("sensor reads = %d/%d, want 1 each", f.left.reads, f.right.reads)
	}
}

func TestHandleGetDoor(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantState  string
	}{
		{name: "left", path: "/api/v1/doors/left", wantStatus: http.StatusOK, wantState: "open"},
		{name: "right", path: "/api/v1/doors/right", wantStatus: http.StatusOK, wantState: "closed"},
		{name: "unknown", path: "/api/v1/doors/middle", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testServer(t)

			rec := f.get(t, tt.path)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantState == "" {
				return
			}
			if got := decode[DoorStatus](t, rec); got.State != tt.wantState {
				t.Errorf("state = %q, want %q", got.State, tt.wantState)
			}
		})
	}
}

func TestHandleDoors_SensorFault(t *testing.T) {
	f := testServer(t)
	f.right.err = door.ErrHardwareFault

	if rec := f.get(t, "/api/v1/doors/right"); rec.Code != http.StatusInternalServerError {
		t.Errorf("GET door status = %d, want 500", rec.Code)
	}
	if rec := f.get(t, "/api/v1/doors"); rec.Code != http.StatusInternalServerError {
		t.Errorf("GET doors status = %d, want 500", rec.Code)
	}
}

// =============================================================================
// Metrics and middleware
// =============================================================================

func TestHandleMetrics(t *testing.T) {
	f := testServer(t)

	rec := f.get(t, "/api/v1/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	m := decode[SystemMetrics](t, rec)
	if m.Session.State != "connected" || m.Session.Dispatched != 7 || m.Session.Replies != 3 {
		t.Errorf("session metrics = %+v", m.Session)
	}
	if !m.Network.Connected {
		t.Error("network.connected = false, want true")
	}
	if m.Runtime.Goroutines == 0 {
		t.Error("runtime.goroutines = 0")
	}
}

func TestReadOnly(t *testing.T) {
	f := testServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/v1/doors/left", strings.NewReader("push"))
		rec := httptest.NewRecorder()
		f.srv.buildRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, rec.Code)
		}
	}
	if f.left.reads != 0 {
		t.Error("rejected request touched a door")
	}
}

func TestRequestID(t *testing.T) {
	f := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	f.srv.buildRouter().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want abc123", got)
	}

	rec = f.get(t, "/api/v1/health")
	if got := rec.Header().Get("X-Request-ID"); len(got) != requestIDBytes*2 {
		t.Errorf("generated X-Request-ID = %q, want %d hex chars", got, requestIDBytes*2)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestStartClose(t *testing.T) {
	f := testServer(t)

	if err := f.srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + f.srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := f.srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClose_NotStarted(t *testing.T) {
	f := testServer(t)
	if err := f.srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// WebSocket
// =============================================================================

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(f.srv.buildRouter())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	//nolint:errcheck // test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocket_DoorEvents(t *testing.T) {
	f := testServer(t)
	conn := dialWS(t, f)

	err := conn.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "1",
		Payload: WSSubscribePayload{Channels: []string{ChannelDoorPulsed, ChannelDoorState}},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if ack := readWS(t, conn); ack.Type != WSTypeResponse || ack.ID != "1" {
		t.Fatalf("ack = %+v, want response to 1", ack)
	}

	hub := f.srv.Hub()
	hub.RecordPulse("left", 500*time.Millisecond)
	hub.RecordState("right", false)

	ev := readWS(t, conn)
	if ev.Type != WSTypeEvent || ev.EventType != ChannelDoorPulsed {
		t.Fatalf("event = %+v, want door.pulsed", ev)
	}
	if p, _ := ev.Payload.(map[string]any); p["door"] != "left" || p["hold_ms"] != float64(500) {
		t.Errorf("pulse payload = %v", ev.Payload)
	}

	ev = readWS(t, conn)
	if ev.EventType != ChannelDoorState {
		t.Fatalf("event = %+v, want door.state", ev)
	}
	if p, _ := ev.Payload.(map[string]any); p["door"] != "right" || p["state"] != "closed" {
		t.Errorf("state payload = %v", ev.Payload)
	}
}

func TestWebSocket_Ping(t *testing.T) {
	f := testServer(t)
	conn := dialWS(t, f)

	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypePong || msg.ID != "p" {
		t.Errorf("reply = %+v, want pong", msg)
	}

	if err := conn.WriteJSON(WSMessage{Type: "bogus", ID: "b"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readWS(t, conn); msg.Type != WSTypeError {
		t.Errorf("reply = %+v, want error", msg)
	}
}

func TestHub_UnsubscribedClientGetsNothing(t *testing.T) {
	hub := NewHub(testConfig().WebSocket, logging.Default())
	client := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{}}
	hub.Register(client)

	hub.RecordState("left", true)

	select {
	case msg := <-client.send:
		t.Errorf("unsubscribed client received %s", msg)
	default:
	}

	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}
