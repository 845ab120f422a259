package door

import (
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-garage/internal/gpio"
)

// DefaultPulse is the hold time of the opener's push-button pulse.
const DefaultPulse = 500 * time.Millisecond

// Logger is the logging interface used by the actuator.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Recorder receives door observations for telemetry. Implementations must
// not block.
type Recorder interface {
	RecordPulse(door string, hold time.Duration)
	RecordState(door string, open bool)
}

// Recorders fans observations out to several recorders in order.
type Recorders []Recorder

// RecordPulse implements Recorder.
func (rs Recorders) RecordPulse(door string, hold time.Duration) {
	for _, r := range rs {
		r.RecordPulse(door, hold)
	}
}

// RecordState implements Recorder.
func (rs Recorders) RecordState(door string, open bool) {
	for _, r := range rs {
		r.RecordState(door, open)
	}
}

// Actuator drives one door.
//
// Thread Safety: Trigger and QueryStatus are safe for concurrent use; pulses
// on the same door are serialised by an internal mutex.
type Actuator struct {
	door  Door
	pins  gpio.Driver
	pulse time.Duration
	sleep func(time.Duration)

	pulseMu sync.Mutex

	logger   Logger
	recorder Recorder
}

// NewActuator creates an actuator for d. A non-positive pulse selects
// DefaultPulse.
func NewActuator(d Door, pins gpio.Driver, pulse time.Duration) (*Actuator, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if pins == nil {
		return nil, fmt.Errorf("door %s: pin driver is required", d.ID)
	}
	if pulse <= 0 {
		pulse = DefaultPulse
	}

	return &Actuator{
		door:  d,
		pins:  pins,
		pulse: pulse,
		sleep: time.Sleep,
	}, nil
}

// SetLogger sets the logger for the actuator.
func (a *Actuator) SetLogger(logger Logger) {
	a.logger = logger
}

// SetRecorder sets an optional telemetry recorder.
func (a *Actuator) SetRecorder(r Recorder) {
	a.recorder = r
}

// Door returns the static description of this door.
func (a *Actuator) Door() Door {
	return a.door
}

// Pulse returns the hold duration.
func (a *Actuator) Pulse() time.Duration {
	return a.pulse
}

// Setup configures the door lines: actuator as output at idle, sensor as
// pulled-up input. Call once at startup before any Trigger.
func (a *Actuator) Setup() error {
	if err := a.pins.ConfigureOutput(a.door.ActuatorPin, actuatorIdle); err != nil {
		return a.fault("configure actuator", err)
	}
	if err := a.pins.ConfigureInputPullUp(a.door.SensorPin); err != nil {
		return a.fault("configure sensor", err)
	}
	return nil
}

// Trigger pulses the actuator: active, hold, idle. It blocks the caller for
// the full pulse and always runs to completion once the line went active.
//
// If restoring idle fails the door may be left with the button held; the
// fault is returned so the process can be restarted by its supervisor.
func (a *Actuator) Trigger() error {
	a.pulseMu.Lock()
	defer a.pulseMu.Unlock()

	if err := a.pins.SetPin(a.door.ActuatorPin, actuatorActive); err != nil {
		return a.fault("drive actuator active", err)
	}

	a.sleep(a.pulse)

	if err := a.pins.SetPin(a.door.ActuatorPin, actuatorIdle); err != nil {
		return a.fault("restore actuator idle", err)
	}

	a.logDebug("door pulsed", "door", string(a.door.ID), "hold", a.pulse)
	if a.recorder != nil {
		a.recorder.RecordPulse(string(a.door.ID), a.pulse)
	}
	return nil
}

// QueryStatus samples the sensor once.
func (a *Actuator) QueryStatus() (State, error) {
	level, err := a.pins.ReadPin(a.door.SensorPin)
	if err != nil {
		return Closed, a.fault("read sensor", err)
	}

	state := Closed
	if level == sensorOpen {
		state = Open
	}
	if a.recorder != nil {
		a.recorder.RecordState(string(a.door.ID), state == Open)
	}
	return state, nil
}

func (a *Actuator) fault(op string, err error) error {
	wrapped := fmt.Errorf("%w: door %s: %s: %w", ErrHardwareFault, a.door.ID, op, err)
	if a.logger != nil {
		a.logger.Error("door hardware fault", "door", string(a.door.ID), "op", op, "error", err)
	}
	return wrapped
}

func (a *Actuator) logDebug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
