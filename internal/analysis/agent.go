package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/pkg/config"
	"github.com/mhalme/vigil-platform/pkg/household"
	"github.com/mhalme/vigil-platform/pkg/mqtt"
	"github.com/mhalme/vigil-platform/pkg/redis"
)

// Request is one analysis request from the dashboard: re-run the engine for
// a household and date. Date is YYYY-MM-DD; empty means today.
type Request struct {
	HouseholdID string `json:"household_id"`
	Date        string `json:"date,omitempty"`
}

// Agent serves analysis requests over MQTT: it loads inputs, runs the
// engine, publishes the report to the household's report topic and caches
// it in Redis for the dashboard API.
type Agent struct {
	mqtt   mqtt.Client
	redis  redis.Client
	runner *Runner
	cfg    *config.Config
	logger *slog.Logger
}

// NewAgent creates an analysis agent with the given dependencies.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, store *activity.Storage, registry *household.Registry, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:   mqttClient,
		redis:  redisClient,
		runner: NewRunner(store, registry, cfg),
		cfg:    cfg,
		logger: logger,
	}
}

// Start connects the clients and serves requests until the context is
// cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting analysis agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicAnalysisRequest, 1, a.handleRequest); err != nil {
		return fmt.Errorf("failed to subscribe to analysis requests: %w", err)
	}

	a.logger.Info("Analysis agent ready", "topic", mqtt.TopicAnalysisRequest)

	<-ctx.Done()
	a.logger.Info("Analysis agent stopping")
	return nil
}

// Stop disconnects the clients.
func (a *Agent) Stop() {
	a.logger.Info("Stopping analysis agent")
	a.mqtt.Disconnect()
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
	}
	a.logger.Info("Analysis agent stopped")
}

func (a *Agent) handleRequest(msg mqtt.Message) {
	var req Request
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		a.logger.Error("Failed to parse analysis request", "error", err)
		return
	}
	if req.HouseholdID == "" {
		a.logger.Error("Analysis request without household_id")
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			a.logger.Error("Invalid date in analysis request", "date", req.Date, "error", err)
			return
		}
		date = parsed
	}

	ctx := context.Background()
	report, err := a.runner.Run(ctx, req.HouseholdID, date)
	if err != nil {
		a.logger.Error("Analysis run failed",
			"household", req.HouseholdID, "date", req.Date, "error", err)
		return
	}

	payload, err := json.Marshal(report)
	if err != nil {
		a.logger.Error("Failed to marshal report", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.AnalysisReportTopic(req.HouseholdID), 1, false, payload); err != nil {
		a.logger.Error("Failed to publish report", "household", req.HouseholdID, "error", err)
	}

	cacheKey := redis.AnalysisReportKey(req.HouseholdID, report.Date)
	if err := a.redis.Set(ctx, cacheKey, payload, a.cfg.ReportTTL()); err != nil {
		a.logger.Warn("Failed to cache report", "key", cacheKey, "error", err)
	}

	a.logger.Info("Analysis complete",
		"household", req.HouseholdID,
		"date", report.Date,
		"label", report.Label,
		"aggregate", report.Aggregate,
		"scored_features", len(report.Rows),
		"baseline_days", report.BaselineDays)
}
