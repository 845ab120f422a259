package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	Network       NetworkMetrics `json:"network"`
	Session       SessionMetrics `json:"session"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// NetworkMetrics contains the link state.
type NetworkMetrics struct {
	Connected bool `json:"connected"`
}

// SessionMetrics contains MQTT session counters.
type SessionMetrics struct {
	State             string `json:"state"`
	Connects          uint64 `json:"connects"`
	Disconnects       uint64 `json:"disconnects"`
	Bursts            uint64 `json:"subscription_bursts"`
	SubscribeFailures uint64 `json:"subscribe_failures"`
	Dispatched        uint64 `json:"dispatched"`
	Replies           uint64 `json:"replies"`
	Faults            uint64 `json:"faults"`
}

// handleMetrics returns runtime, link and session metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := s.session.Stats()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.Hub().ClientCount(),
		},
		Session: SessionMetrics{
			State:             s.session.State().String(),
			Connects:          stats.Connects,
			Disconnects:       stats.Disconnects,
			Bursts:            stats.Bursts,
			SubscribeFailures: stats.SubscribeFailures,
			Dispatched:        stats.Dispatched,
			Replies:           stats.Replies,
			Faults:            stats.Faults,
		},
	}
	if s.network != nil {
		metrics.Network.Connected = s.network.IsConnected()
	}

	writeJSON(w, http.StatusOK, metrics)
}
