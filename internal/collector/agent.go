package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/pkg/config"
	"github.com/mhalme/vigil-platform/pkg/household"
	"github.com/mhalme/vigil-platform/pkg/mqtt"
)

// Agent receives raw sensor events over MQTT and aggregates them into the
// hourly and daily activity tables the anomaly engine reads.
type Agent struct {
	mqtt       mqtt.Client
	processor  *Processor
	aggregator *Aggregator
	cfg        *config.Config
	logger     *slog.Logger
}

// NewAgent creates a collector agent with the given dependencies.
func NewAgent(mqttClient mqtt.Client, store *activity.Storage, registry *household.Registry, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:       mqttClient,
		processor:  NewProcessor(logger),
		aggregator: NewAggregator(store, registry, logger),
		cfg:        cfg,
		logger:     logger,
	}
}

// Start connects to MQTT, subscribes to the raw sensor topics, and flushes
// aggregated buckets on an interval until the context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting collector agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	for _, topic := range a.cfg.SensorTopics {
		if err := a.mqtt.Subscribe(topic, 0, a.handleMessage); err != nil {
			a.logger.Error("Failed to subscribe to topic", "topic", topic, "error", err)
			continue
		}
	}

	a.logger.Info("Collector agent ready",
		"subscribed_topics", strings.Join(a.cfg.SensorTopics, ", "),
		"flush_interval_sec", a.cfg.FlushIntervalSec)

	ticker := time.NewTicker(time.Duration(a.cfg.FlushIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.aggregator.Flush(ctx); err != nil {
				a.logger.Warn("Flush completed with errors", "error", err)
			}
		case <-ctx.Done():
			a.logger.Info("Collector agent stopping")
			return nil
		}
	}
}

// Stop flushes pending buckets and disconnects.
func (a *Agent) Stop() {
	a.logger.Info("Stopping collector agent")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.aggregator.Flush(ctx); err != nil {
		a.logger.Error("Final flush failed", "error", err)
	}

	a.mqtt.Disconnect()
	a.logger.Info("Collector agent stopped")
}

func (a *Agent) handleMessage(msg mqtt.Message) {
	event, err := a.processor.ParseMessage(msg.Topic(), msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse sensor message", "topic", msg.Topic(), "error", err)
		return
	}

	a.logger.Debug("Received sensor event",
		"household", event.HouseholdID,
		"room", event.Room,
		"sensor_type", event.SensorType,
		"state", event.State)

	a.aggregator.Add(event)
}
