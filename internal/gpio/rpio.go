package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// maxBCMPin is the highest BCM line go-rpio can address.
const maxBCMPin = 53

// RPIO drives Raspberry Pi GPIO through /dev/gpiomem.
type RPIO struct {
	mu   sync.Mutex
	open bool
}

// OpenRPIO maps the GPIO registers. Close must be called to unmap them.
func OpenRPIO() (*RPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotOpen, err)
	}
	return &RPIO{open: true}, nil
}

func (r *RPIO) pin(pin Pin) (rpio.Pin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return 0, ErrNotOpen
	}
	if pin < 0 || pin > maxBCMPin {
		return 0, invalidPin(pin)
	}
	return rpio.Pin(pin), nil
}

// ConfigureOutput implements Driver. The level is written before the
// direction change so the line never glitches to the other level.
func (r *RPIO) ConfigureOutput(pin Pin, initial Level) error {
	p, err := r.pin(pin)
	if err != nil {
		return err
	}
	p.Write(rpio.State(initial))
	p.Output()
	p.Write(rpio.State(initial))
	return nil
}

// ConfigureInputPullUp implements Driver.
func (r *RPIO) ConfigureInputPullUp(pin Pin) error {
	p, err := r.pin(pin)
	if err != nil {
		return err
	}
	p.Input()
	p.PullUp()
	return nil
}

// SetPin implements Driver.
func (r *RPIO) SetPin(pin Pin, level Level) error {
	p, err := r.pin(pin)
	if err != nil {
		return err
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// ReadPin implements Driver.
func (r *RPIO) ReadPin(pin Pin) (Level, error) {
	p, err := r.pin(pin)
	if err != nil {
		return Low, err
	}
	if p.Read() == rpio.High {
		return High, nil
	}
	return Low, nil
}

// Close unmaps the GPIO registers. Safe to call more than once.
func (r *RPIO) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.open {
		return nil
	}
	r.open = false
	return rpio.Close()
}
