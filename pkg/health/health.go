package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mhalme/vigil-platform/pkg/mqtt"
	"github.com/mhalme/vigil-platform/pkg/postgres"
)

// Checker provides health check handlers for the agents.
type Checker struct {
	mqtt     mqtt.Client
	postgres postgres.Client
	logger   *slog.Logger
}

// NewChecker creates a health checker. Either dependency may be nil when an
// agent does not use it.
func NewChecker(mqttClient mqtt.Client, pgClient postgres.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:     mqttClient,
		postgres: pgClient,
		logger:   logger,
	}
}

// Response is the health check payload.
type Response struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services reports the status of external dependencies.
type Services struct {
	MQTT     string `json:"mqtt,omitempty"`
	Postgres string `json:"postgres,omitempty"`
}

// HandlerFunc returns a minimal liveness handler: 200 while the process is
// up, no dependency checks, so the probe stays fast.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := Response{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc returns a handler that also reports dependency state.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{}

		status := "healthy"
		statusCode := http.StatusOK

		if h.mqtt != nil {
			services.MQTT = "connected"
			if !h.mqtt.IsConnected() {
				services.MQTT = "disconnected"
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}
		if h.postgres != nil {
			services.Postgres = "connected"
			if !h.postgres.IsConnected() {
				services.Postgres = "disconnected"
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		response := Response{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
