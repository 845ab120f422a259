// Package door owns the actuation sequence and sensor read of one garage door.
//
// A door has an actuator line (idle High, active Low) wired to the opener's
// push-button input, and a sensor line with pull-up bias that reads High
// while the door is open.
//
// Trigger is a blocking timed operation: it drives the actuator active,
// holds it for the pulse duration, then restores idle. The caller is
// suspended for the whole window. Each Actuator serialises its own pulses,
// so two triggers on the same door never overlap even if callers do.
//
// State is never stored. QueryStatus samples the sensor once and reports
// what it reads; a bouncing sensor produces a bouncing answer.
package door
