package door

import "errors"

var (
	// ErrHardwareFault wraps any failure to drive or read a door line.
	// It is not retried; no safe local recovery exists for a dead actuator.
	ErrHardwareFault = errors.New("door: hardware fault")

	// ErrUnknownDoor is returned for a door ID other than left or right.
	ErrUnknownDoor = errors.New("door: unknown door")
)
