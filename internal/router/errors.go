package router

import "errors"

var (
	// ErrHardwareFault is returned by Dispatch when a door line could not be
	// driven or read. The underlying door error is wrapped alongside it.
	ErrHardwareFault = errors.New("router: hardware fault")

	// ErrInvalidTable is returned when a topic table breaks its invariants.
	ErrInvalidTable = errors.New("router: invalid topic table")
)
