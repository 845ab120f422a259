package router

import (
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-garage/internal/door"
)

// MockDoor implements Door for testing.
type MockDoor struct {
	mu         sync.Mutex
	triggers   int
	queries    int
	state      door.State
	triggerErr error
	queryErr   error
}

func (m *MockDoor) Trigger() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers++
	return m.triggerErr
}

func (m *MockDoor) QueryStatus() (door.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	return m.state, m.queryErr
}

func (m *MockDoor) Triggers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.triggers
}

func (m *MockDoor) Queries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries
}

func newTestRouter(t *testing.T) (*Router, *MockDoor, *MockDoor) {
	t.Helper()
	left, right := &MockDoor{}, &MockDoor{}
	r, err := New(DefaultTable(), map[door.ID]Door{door.Left: left, door.Right: right})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r, left, right
}

func dispatch(t *testing.T, r *Router, topic, payload string) (Reply, bool) {
	t.Helper()
	reply, ok, err := r.Dispatch(InboundMessage{Topic: topic, Payload: []byte(payload)})
	if err != nil {
		t.Fatalf("Dispatch(%q, %q) error = %v", topic, payload, err)
	}
	return reply, ok
}

func TestNew_RequiresEveryDoor(t *testing.T) {
	_, err := New(DefaultTable(), map[door.ID]Door{door.Left: &MockDoor{}})
	if err == nil {
		t.Fatal("New() expected error when right door is missing")
	}
}

func TestNew_RequiresTable(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("New(nil) error = %v, want ErrInvalidTable", err)
	}
}

func TestDispatch_UnknownTopicIsNoOp(t *testing.T) {
	r, left, right := newTestRouter(t)

	topics := []string{
		"",
		"garage/door",
		"garage/door/",
		"garage/door/middle",
		"garage/door/left/",
		"garage/door/left/status/extra",
		"Garage/Door/Left",
		"garage/door/+",
		"garage/#",
		"other/topic",
	}

	for _, topic := range topics {
		for _, payload := range []string{"push", "get", ""} {
			if _, ok := dispatch(t, r, topic, payload); ok {
				t.Errorf("Dispatch(%q, %q) produced a reply", topic, payload)
			}
		}
	}

	if left.Triggers()+right.Triggers() != 0 {
		t.Errorf("unknown topics triggered doors: left=%d right=%d", left.Triggers(), right.Triggers())
	}
	if left.Queries()+right.Queries() != 0 {
		t.Errorf("unknown topics queried doors: left=%d right=%d", left.Queries(), right.Queries())
	}
}

func TestDispatch_Actuate(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		payload   string
		wantLeft  int
		wantRight int
	}{
		{name: "left push", topic: "garage/door/left", payload: "push", wantLeft: 1},
		{name: "right push", topic: "garage/door/right", payload: "push", wantRight: 1},
		{name: "wrong payload", topic: "garage/door/left", payload: "open"},
		{name: "case sensitive", topic: "garage/door/left", payload: "PUSH"},
		{name: "trailing space", topic: "garage/door/left", payload: "push "},
		{name: "prefix only", topic: "garage/door/left", payload: "pus"},
		{name: "empty payload", topic: "garage/door/right", payload: ""},
		{name: "status token on actuate topic", topic: "garage/door/right", payload: "get"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, left, right := newTestRouter(t)

			if _, ok := dispatch(t, r, tt.topic, tt.payload); ok {
				t.Error("actuate dispatch produced a reply")
			}
			if left.Triggers() != tt.wantLeft {
				t.Errorf("left triggers = %d, want %d", left.Triggers(), tt.wantLeft)
			}
			if right.Triggers() != tt.wantRight {
				t.Errorf("right triggers = %d, want %d", right.Triggers(), tt.wantRight)
			}
			if left.Queries()+right.Queries() != 0 {
				t.Error("actuate dispatch queried a sensor")
			}
		})
	}
}

func TestDispatch_Status(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		payload   string
		leftOpen  bool
		rightOpen bool
		wantOK    bool
		want      string
	}{
		{name: "left open", topic: "garage/door/left/status", payload: "get", leftOpen: true, wantOK: true, want: "status:open"},
		{name: "left closed", topic: "garage/door/left/status", payload: "get", wantOK: true, want: "status:closed"},
		{name: "right closed", topic: "garage/door/right/status", payload: "get", leftOpen: true, wantOK: true, want: "status:closed"},
		{name: "right open", topic: "garage/door/right/status", payload: "get", rightOpen: true, wantOK: true, want: "status:open"},
		{name: "wrong payload", topic: "garage/door/left/status", payload: "status"},
		{name: "case sensitive", topic: "garage/door/left/status", payload: "GET"},
		{name: "empty payload", topic: "garage/door/right/status", payload: ""},
		{name: "push on status topic", topic: "garage/door/right/status", payload: "push"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, left, right := newTestRouter(t)
			if tt.leftOpen {
				left.state = door.Open
			}
			if tt.rightOpen {
				right.state = door.Open
			}

			reply, ok := dispatch(t, r, tt.topic, tt.payload)
			if ok != tt.wantOK {
				t.Fatalf("Dispatch() ok = %v, want %v", ok, tt.wantOK)
			}
			if left.Triggers()+right.Triggers() != 0 {
				t.Error("status dispatch triggered a door")
			}
			if !ok {
				return
			}
			if reply.Topic != tt.topic {
				t.Errorf("reply topic = %q, want %q", reply.Topic, tt.topic)
			}
			if string(reply.Payload) != tt.want {
				t.Errorf("reply payload = %q, want %q", reply.Payload, tt.want)
			}
		})
	}
}

func TestDispatch_HardwareFault(t *testing.T) {
	r, left, right := newTestRouter(t)
	doorErr := errors.New("line stuck")
	left.triggerErr = doorErr
	right.queryErr = doorErr

	_, ok, err := r.Dispatch(InboundMessage{Topic: "garage/door/left", Payload: []byte("push")})
	if ok {
		t.Error("faulted actuate produced a reply")
	}
	if !errors.Is(err, ErrHardwareFault) || !errors.Is(err, doorErr) {
		t.Errorf("Dispatch() error = %v, want ErrHardwareFault wrapping door error", err)
	}

	_, ok, err = r.Dispatch(InboundMessage{Topic: "garage/door/right/status", Payload: []byte("get")})
	if ok {
		t.Error("faulted status query produced a reply")
	}
	if !errors.Is(err, ErrHardwareFault) {
		t.Errorf("Dispatch() error = %v, want ErrHardwareFault", err)
	}
}

func TestRouter_Topics(t *testing.T) {
	r, _, _ := newTestRouter(t)
	want := []string{
		"garage/door/left",
		"garage/door/right",
		"garage/door/left/status",
		"garage/door/right/status",
	}

	got := r.Topics()
	if len(got) != len(want) {
		t.Fatalf("Topics() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Topics()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
