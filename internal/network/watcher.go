package network

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wlynxg/anet"
)

// DefaultProbeInterval is used when NewInterfaceWatcher gets a non-positive interval.
const DefaultProbeInterval = time.Second

// InterfaceWatcher polls a host interface for an IPv4 address and reports
// changes as link events. It also serves as the supervisor's Link: Connect
// triggers an immediate re-probe.
type InterfaceWatcher struct {
	name     string
	interval time.Duration
	probe    func() (bool, error)
	kick     chan struct{}
	logger   Logger
}

// NewInterfaceWatcher watches the named interface. An empty name accepts
// any interface that is up and not loopback.
func NewInterfaceWatcher(name string, interval time.Duration) *InterfaceWatcher {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	w := &InterfaceWatcher{
		name:     name,
		interval: interval,
		kick:     make(chan struct{}, 1),
	}
	w.probe = w.hasAddress
	return w
}

// SetLogger sets the logger for the watcher.
func (w *InterfaceWatcher) SetLogger(logger Logger) {
	w.logger = logger
}

// Connect requests an immediate re-probe. It never blocks.
func (w *InterfaceWatcher) Connect() error {
	select {
	case w.kick <- struct{}{}:
	default:
	}
	return nil
}

// Run emits EventStarted, then probes until ctx is cancelled, emitting
// EventGotAddress and EventDisconnected on every change of address
// availability. sink is called from Run's goroutine only.
func (w *InterfaceWatcher) Run(ctx context.Context, sink func(Event)) error {
	sink(EventStarted)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	up := false
	for {
		ok, err := w.probe()
		if err != nil && w.logger != nil {
			w.logger.Debug("network probe failed", "interface", w.name, "error", err)
		}

		switch {
		case ok && !up:
			up = true
			sink(EventGotAddress)
		case !ok && up:
			up = false
			sink(EventDisconnected)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.kick:
		}
	}
}

// hasAddress reports whether the watched interface holds an IPv4 address.
func (w *InterfaceWatcher) hasAddress() (bool, error) {
	ifaces, err := anet.Interfaces()
	if err != nil {
		return false, fmt.Errorf("listing interfaces: %w", err)
	}

	found := false
	for i := range ifaces {
		iface := &ifaces[i]
		if w.name != "" && iface.Name != w.name {
			continue
		}
		found = true
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := anet.InterfaceAddrsByInterface(iface)
		if err != nil {
			return false, fmt.Errorf("reading addresses of %s: %w", iface.Name, err)
		}
		if hasIPv4(addrs) {
			return true, nil
		}
	}

	if w.name != "" && !found {
		return false, fmt.Errorf("interface %s not found", w.name)
	}
	return false, nil
}

func hasIPv4(addrs []net.Addr) bool {
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		if ip != nil && ip.To4() != nil && !ip.IsLoopback() {
			return true
		}
	}
	return false
}
