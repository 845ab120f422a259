package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the controller.
const (
	measurementPulse = "door_pulse"
	measurementState = "door_state"
)

// RecordPulse writes one completed actuator pulse.
//
// Parameters:
//   - door: Door identifier ("left" or "right")
//   - hold: How long the actuator was held active
func (c *Client) RecordPulse(door string, hold time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(pulsePoint(c.deviceID, door, hold, c.now()))
}

// RecordState writes the result of one sensor read.
//
// Parameters:
//   - door: Door identifier ("left" or "right")
//   - open: true when the sensor reported the door open
func (c *Client) RecordState(door string, open bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(statePoint(c.deviceID, door, open, c.now()))
}

func pulsePoint(deviceID, door string, hold time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		measurementPulse,
		map[string]string{
			"device_id": deviceID,
			"door":      door,
		},
		map[string]interface{}{
			"hold_ms": hold.Milliseconds(),
		},
		at,
	)
}

func statePoint(deviceID, door string, open bool, at time.Time) *write.Point {
	// Stored as 0/1 so the series can be graphed and averaged.
	var value int64
	if open {
		value = 1
	}
	return write.NewPoint(
		measurementState,
		map[string]string{
			"device_id": deviceID,
			"door":      door,
		},
		map[string]interface{}{
			"open": value,
		},
		at,
	)
}
