// Package influxdb records garage door telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written, both tagged with device_id and door:
//
//   - door_pulse: one point per completed actuator pulse (field hold_ms)
//   - door_state: one point per sensor read (field open, 0 or 1)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Device.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	actuator.SetRecorder(client)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are reported via a
// callback (SetOnError). Connection and health check errors are returned
// directly. Telemetry is optional: a failed write never affects a door.
package influxdb
