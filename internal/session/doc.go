// Package session owns the controller's MQTT session.
//
// The Controller waits for the network, opens the transport, and on every
// new connection subscribes the router's topics in table order. Inbound
// messages are dispatched one at a time through the router; status replies
// are published back on the topic they were asked on.
//
// A hardware fault reported by dispatch is handed to the fault handler.
// The process is expected to stop and let its supervisor restart it.
//
// # Lifecycle
//
//	ctrl := session.New(mqttClient, rtr, supervisor)
//	ctrl.SetOnFault(func(err error) { cancel() })
//	if err := ctrl.Start(ctx); err != nil {
//	    return err
//	}
//
// Subscriptions are not carried across sessions. The broker session is
// clean, so each Disconnected → Connected transition produces exactly one
// subscription burst.
package session
