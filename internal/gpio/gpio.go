package gpio

import (
	"errors"
	"fmt"
)

// Pin identifies a digital line by its controller number.
type Pin int

// Level is the logic level of a digital line.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// String returns "low" or "high".
func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Driver is the pin capability door code depends on.
//
// Implementations are not required to be safe for concurrent use on the
// same pin; callers serialise access per door.
type Driver interface {
	// ConfigureOutput makes pin an output and drives it to initial.
	ConfigureOutput(pin Pin, initial Level) error

	// ConfigureInputPullUp makes pin an input with pull-up bias.
	ConfigureInputPullUp(pin Pin) error

	// SetPin drives an output pin.
	SetPin(pin Pin, level Level) error

	// ReadPin samples a pin once.
	ReadPin(pin Pin) (Level, error)

	// Close releases the underlying hardware.
	Close() error
}

// Sentinel errors for pin access.
var (
	// ErrNotOpen is returned when the driver has been closed or never opened.
	ErrNotOpen = errors.New("gpio: driver not open")

	// ErrInvalidPin is returned for a pin number the driver cannot address.
	ErrInvalidPin = errors.New("gpio: invalid pin")

	// ErrNotOutput is returned when driving a pin not configured as output.
	ErrNotOutput = errors.New("gpio: pin not configured as output")
)

func invalidPin(pin Pin) error {
	return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
}
