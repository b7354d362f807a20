package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SensorEvent is one parsed raw sensor message.
type SensorEvent struct {
	ID          uuid.UUID
	HouseholdID string
	Room        string
	SensorType  string
	State       string
	Timestamp   time.Time
}

// rawPayload is the wire shape published by the gateway.
type rawPayload struct {
	HouseholdID string `json:"household_id"`
	State       string `json:"state"`
	Timestamp   string `json:"timestamp"`
}

// Processor parses raw sensor messages from MQTT.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a message processor.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{logger: logger}
}

// ParseMessage parses an MQTT message into a SensorEvent.
// Topic pattern: vigil/raw/{sensor_type}/{room}
func (p *Processor) ParseMessage(topic string, payload []byte) (*SensorEvent, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid topic format: %s (expected vigil/raw/{sensor_type}/{room})", topic)
	}
	sensorType := parts[2]
	room := parts[3]

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse payload JSON: %w", err)
	}
	if raw.HouseholdID == "" {
		return nil, fmt.Errorf("missing household_id on topic %s", topic)
	}

	timestamp := time.Now()
	if raw.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, raw.Timestamp)
		if err != nil {
			p.logger.Warn("Unparseable event timestamp, using arrival time",
				"topic", topic, "timestamp", raw.Timestamp)
		} else {
			timestamp = parsed
		}
	}

	return &SensorEvent{
		ID:          uuid.New(),
		HouseholdID: raw.HouseholdID,
		Room:        room,
		SensorType:  sensorType,
		State:       raw.State,
		Timestamp:   timestamp,
	}, nil
}

// CountsAsEvent reports whether the event increments activity counters.
// Motion counts on detection; doors count on opening so a single open/close
// cycle is one event.
func (e *SensorEvent) CountsAsEvent() bool {
	switch e.SensorType {
	case "motion":
		return e.State == "on"
	case "door":
		return e.State == "open"
	default:
		return false
	}
}
