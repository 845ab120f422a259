package gpio

import (
	"sync"
	"time"
)

type pinMode uint8

const (
	modeUnset pinMode = iota
	modeOutput
	modeInput
)

// Transition is one recorded level change on an output pin.
type Transition struct {
	Pin   Pin
	Level Level
	At    time.Time
}

type memoryPin struct {
	mode  pinMode
	level Level
	fault error
}

// maxTransitions caps the recorded history so long bench runs stay bounded.
const maxTransitions = 4096

// Memory is an in-process pin bank. Inputs are set with SetInput; every
// level written to an output is recorded with a timestamp. Only the most
// recent maxTransitions writes are kept.
//
// Thread Safety: all methods are safe for concurrent use.
type Memory struct {
	mu          sync.Mutex
	pins        map[Pin]*memoryPin
	transitions []Transition
	limit       int
	closed      bool
	now         func() time.Time
}

// NewMemory returns an empty pin bank.
func NewMemory() *Memory {
	return &Memory{
		pins:  make(map[Pin]*memoryPin),
		limit: maxTransitions,
		now:   time.Now,
	}
}

func (m *Memory) get(pin Pin) (*memoryPin, error) {
	if m.closed {
		return nil, ErrNotOpen
	}
	if pin < 0 {
		return nil, invalidPin(pin)
	}
	p, ok := m.pins[pin]
	if !ok {
		p = &memoryPin{}
		m.pins[pin] = p
	}
	return p, nil
}

// ConfigureOutput implements Driver.
func (m *Memory) ConfigureOutput(pin Pin, initial Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.get(pin)
	if err != nil {
		return err
	}
	if p.fault != nil {
		return p.fault
	}
	p.mode = modeOutput
	p.level = initial
	return nil
}

// ConfigureInputPullUp implements Driver. A pulled-up input floats High
// until SetInput says otherwise.
func (m *Memory) ConfigureInputPullUp(pin Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.get(pin)
	if err != nil {
		return err
	}
	if p.fault != nil {
		return p.fault
	}
	if p.mode != modeInput {
		p.level = High
	}
	p.mode = modeInput
	return nil
}

// SetPin implements Driver.
func (m *Memory) SetPin(pin Pin, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.get(pin)
	if err != nil {
		return err
	}
	if p.fault != nil {
		return p.fault
	}
	if p.mode != modeOutput {
		return ErrNotOutput
	}
	p.level = level
	if len(m.transitions) >= m.limit {
		// Shift in place so the backing array does not grow.
		n := copy(m.transitions, m.transitions[len(m.transitions)-m.limit+1:])
		m.transitions = m.transitions[:n]
	}
	m.transitions = append(m.transitions, Transition{Pin: pin, Level: level, At: m.now()})
	return nil
}

// ReadPin implements Driver.
func (m *Memory) ReadPin(pin Pin) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.get(pin)
	if err != nil {
		return Low, err
	}
	if p.fault != nil {
		return Low, p.fault
	}
	return p.level, nil
}

// Close implements Driver.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// SetInput sets the level an input pin reads.
func (m *Memory) SetInput(pin Pin, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pins[pin]
	if !ok {
		p = &memoryPin{mode: modeInput}
		m.pins[pin] = p
	}
	p.level = level
}

// SetFault makes every later operation on pin fail with err.
// A nil err clears the fault.
func (m *Memory) SetFault(pin Pin, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pins[pin]
	if !ok {
		p = &memoryPin{}
		m.pins[pin] = p
	}
	p.fault = err
}

// Level returns the current level of pin.
func (m *Memory) Level(pin Pin) Level {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pins[pin]; ok {
		return p.level
	}
	return Low
}

// IsOutput reports whether pin was configured as an output.
func (m *Memory) IsOutput(pin Pin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pins[pin]
	return ok && p.mode == modeOutput
}

// Transitions returns the recorded writes to pin, oldest first.
func (m *Memory) Transitions(pin Pin) []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Transition
	for _, t := range m.transitions {
		if t.Pin == pin {
			out = append(out, t)
		}
	}
	return out
}

// TransitionCount returns the number of writes still recorded across all
// pins.
func (m *Memory) TransitionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transitions)
}
