package router

import (
	"fmt"

	"github.com/nerrad567/gray-logic-garage/internal/door"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/mqtt"
)

// Door is the door capability the router drives. *door.Actuator satisfies it.
type Door interface {
	Trigger() error
	QueryStatus() (door.State, error)
}

// Logger is the logging interface used by the router.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// InboundMessage is one received message. It is only valid for the
// duration of the Dispatch call.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// Reply is a message to publish in answer to a status query.
type Reply struct {
	Topic   string
	Payload []byte
}

// Router dispatches inbound messages against a topic table.
type Router struct {
	table  *Table
	doors  map[door.ID]Door
	logger Logger
}

// New creates a router. Every door named by the table must be supplied.
func New(table *Table, doors map[door.ID]Door) (*Router, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidTable)
	}
	for _, e := range table.entries {
		if doors[e.Command.Door] == nil {
			return nil, fmt.Errorf("router: no door for %s (topic %q)", e.Command.Door, e.Topic)
		}
	}

	owned := make(map[door.ID]Door, len(doors))
	for id, d := range doors {
		owned[id] = d
	}

	return &Router{table: table, doors: owned}, nil
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// Topics returns the topics to subscribe, in table order.
func (r *Router) Topics() []string {
	return r.table.Topics()
}

// Dispatch handles one inbound message.
//
// It returns a reply (ok == true) only for a valid status query. Unknown
// topics and unexpected payloads are ignored. A non-nil error always wraps
// ErrHardwareFault.
func (r *Router) Dispatch(msg InboundMessage) (reply Reply, ok bool, err error) {
	cmd, known := r.table.Lookup(msg.Topic)
	if !known {
		r.logDebug("ignoring unknown topic", "topic", msg.Topic)
		return Reply{}, false, nil
	}

	if string(msg.Payload) != cmd.Kind.token() {
		r.logDebug("ignoring unrecognised payload",
			"topic", msg.Topic,
			"kind", cmd.Kind.String(),
			"payload", string(msg.Payload))
		return Reply{}, false, nil
	}

	d := r.doors[cmd.Door]

	switch cmd.Kind {
	case Actuate:
		r.logInfo("door triggered", "door", string(cmd.Door))
		if err := d.Trigger(); err != nil {
			return Reply{}, false, fmt.Errorf("%w: %w", ErrHardwareFault, err)
		}
		return Reply{}, false, nil

	case StatusQuery:
		state, err := d.QueryStatus()
		if err != nil {
			return Reply{}, false, fmt.Errorf("%w: %w", ErrHardwareFault, err)
		}
		r.logDebug("door status queried", "door", string(cmd.Door), "state", state.String())
		return Reply{Topic: msg.Topic, Payload: StatusPayload(state)}, true, nil
	}

	return Reply{}, false, nil
}

// StatusPayload returns the reply payload for a door state.
func StatusPayload(s door.State) []byte {
	if s == door.Open {
		return []byte(mqtt.PayloadStatusOpen)
	}
	return []byte(mqtt.PayloadStatusClosed)
}

func (r *Router) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Router) logInfo(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}
