package door

import (
	"fmt"

	"github.com/nerrad567/gray-logic-garage/internal/gpio"
)

// ID identifies one of the two doors.
type ID string

const (
	Left  ID = "left"
	Right ID = "right"
)

// IDs lists every door in a stable order.
var IDs = []ID{Left, Right}

// Valid reports whether id names a known door.
func (id ID) Valid() bool {
	return id == Left || id == Right
}

// State is the sensor-derived position of a door.
type State int

const (
	Closed State = iota
	Open
)

// String returns "open" or "closed".
func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Electrical conventions of the door wiring.
const (
	actuatorIdle   = gpio.High
	actuatorActive = gpio.Low
	sensorOpen     = gpio.High
)

// Door is the static description of one door.
type Door struct {
	ID          ID
	ActuatorPin gpio.Pin
	SensorPin   gpio.Pin
}

// Validate checks the door identity and that its two lines differ.
func (d Door) Validate() error {
	if !d.ID.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDoor, d.ID)
	}
	if d.ActuatorPin == d.SensorPin {
		return fmt.Errorf("door %s: actuator and sensor share pin %d", d.ID, d.ActuatorPin)
	}
	return nil
}
