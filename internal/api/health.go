package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds all dependency checks of one request.
const healthCheckTimeout = 3 * time.Second

// Health check results.
const (
	checkOK   = "ok"
	checkDown = "down"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// handleHealth reports the controller's dependencies. Any failing check
// turns the response into 503 so external monitors can alert on it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:  checkOK,
		Version: s.version,
		Checks:  map[string]string{},
	}
	fail := func(name, reason string) {
		resp.Checks[name] = reason
		resp.Status = "degraded"
	}

	if s.network != nil {
		if s.network.IsConnected() {
			resp.Checks["network"] = checkOK
		} else {
			fail("network", checkDown)
		}
	}

	if s.mqtt != nil {
		if err := s.mqtt.HealthCheck(ctx); err != nil {
			fail("mqtt", err.Error())
		} else {
			resp.Checks["mqtt"] = checkOK
		}
	}

	if s.influx != nil {
		if err := s.influx.HealthCheck(ctx); err != nil {
			fail("influxdb", err.Error())
		} else {
			resp.Checks["influxdb"] = checkOK
		}
	}

	status := http.StatusOK
	if resp.Status != checkOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
