package router

import (
	"fmt"

	"github.com/nerrad567/gray-logic-garage/internal/door"
	"github.com/nerrad567/gray-logic-garage/internal/infrastructure/mqtt"
)

// Kind is the type of command a topic carries.
type Kind int

const (
	// Actuate topics accept "push" and pulse the door.
	Actuate Kind = iota

	// StatusQuery topics accept "get" and reply with the door state.
	StatusQuery
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case Actuate:
		return "actuate"
	case StatusQuery:
		return "status"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// token returns the only payload the kind acts on.
func (k Kind) token() string {
	if k == Actuate {
		return mqtt.PayloadPush
	}
	return mqtt.PayloadGet
}

// Command is what a topic maps to.
type Command struct {
	Door door.ID
	Kind Kind
}

// Entry is one row of the topic table.
type Entry struct {
	Topic   string
	Command Command
}

// Table is the immutable topic table.
type Table struct {
	entries []Entry
	index   map[string]Command
}

// NewTable validates entries and builds a table that keeps their order.
//
// Invariants:
//   - topics are non-empty and unique
//   - every door has exactly one Actuate and one StatusQuery topic
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]Command, len(entries)),
	}

	seen := make(map[Command]string)
	for _, e := range entries {
		if e.Topic == "" {
			return nil, fmt.Errorf("%w: empty topic", ErrInvalidTable)
		}
		if !e.Command.Door.Valid() {
			return nil, fmt.Errorf("%w: topic %q: unknown door %q", ErrInvalidTable, e.Topic, e.Command.Door)
		}
		if e.Command.Kind != Actuate && e.Command.Kind != StatusQuery {
			return nil, fmt.Errorf("%w: topic %q: unknown kind %v", ErrInvalidTable, e.Topic, e.Command.Kind)
		}
		if _, dup := t.index[e.Topic]; dup {
			return nil, fmt.Errorf("%w: duplicate topic %q", ErrInvalidTable, e.Topic)
		}
		if other, dup := seen[e.Command]; dup {
			return nil, fmt.Errorf("%w: door %s has two %s topics (%q, %q)",
				ErrInvalidTable, e.Command.Door, e.Command.Kind, other, e.Topic)
		}
		seen[e.Command] = e.Topic
		t.index[e.Topic] = e.Command
		t.entries = append(t.entries, e)
	}

	for _, id := range door.IDs {
		for _, k := range []Kind{Actuate, StatusQuery} {
			if _, ok := seen[Command{Door: id, Kind: k}]; !ok {
				return nil, fmt.Errorf("%w: door %s has no %s topic", ErrInvalidTable, id, k)
			}
		}
	}

	return t, nil
}

// DefaultTable returns the fixed four-topic table in subscription order.
func DefaultTable() *Table {
	topics := mqtt.Topics{}
	t, err := NewTable([]Entry{
		{Topic: topics.DoorCommand(string(door.Left)), Command: Command{Door: door.Left, Kind: Actuate}},
		{Topic: topics.DoorCommand(string(door.Right)), Command: Command{Door: door.Right, Kind: Actuate}},
		{Topic: topics.DoorStatus(string(door.Left)), Command: Command{Door: door.Left, Kind: StatusQuery}},
		{Topic: topics.DoorStatus(string(door.Right)), Command: Command{Door: door.Right, Kind: StatusQuery}},
	})
	if err != nil {
		panic(fmt.Sprintf("router: default table: %v", err))
	}
	return t
}

// Lookup returns the command mapped to topic.
func (t *Table) Lookup(topic string) (Command, bool) {
	c, ok := t.index[topic]
	return c, ok
}

// Topics returns every topic in table order.
func (t *Table) Topics() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Topic
	}
	return out
}

// Entries returns a copy of the table rows in order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
