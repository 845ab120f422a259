// Package mqtt provides the MQTT transport of the garage door controller.
//
// This package manages:
//   - Connection to the broker with unlimited retry and auto-reconnect
//   - Message publishing
//   - Topic subscriptions for the current session
//   - Optional Last Will on an availability topic
//   - The door topic names and payload tokens
//
// The transport does not restore subscriptions on reconnect. The broker
// session is clean, and the session controller subscribes again from the
// connect callback.
//
// # Security Considerations
//
//   - Set mqtt.broker.tls for anything but a trusted LAN
//   - Any client allowed to publish on garage/door/# can move the doors;
//     restrict it with broker ACLs
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	client.SetOnConnect(func() {
//	    _ = client.Subscribe(mqtt.Topics{}.DoorCommand("left"), 0, handler)
//	})
//	if err := client.Open(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
package mqtt
