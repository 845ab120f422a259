// Package network tracks whether the controller has a usable network link.
//
// A Supervisor consumes link events and keeps a single Up/Down state that
// other components wait on before opening their sessions. Every loss of the
// link immediately requests a new connection attempt; there is no backoff
// and no retry limit.
//
// InterfaceWatcher is the event source on a Linux host: it probes an
// interface for an IPv4 address and turns address changes into events.
//
// # Usage
//
//	watcher := network.NewInterfaceWatcher("wlan0", time.Second)
//	sup := network.NewSupervisor(watcher)
//	go watcher.Run(ctx, sup.HandleEvent)
//
//	if err := sup.WaitConnected(ctx); err != nil {
//	    return err
//	}
package network
