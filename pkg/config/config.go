package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a Vigil service.
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost            string
	PostgresPort            int
	PostgresUser            string
	PostgresPassword        string
	PostgresDB              string
	PostgresSSLMode         string
	PostgresMaxConnections  int
	PostgresMaxIdleConns    int
	PostgresConnMaxLifetime time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Household registry
	HouseholdsFile string

	// Collector configuration
	SensorTopics     []string
	FlushIntervalSec int

	// Analysis configuration
	BaselineDays     int
	MinReliableDays  int
	ReportTTLMinutes int

	// Dashboard API configuration
	APIPort int
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:            "localhost",
		PostgresPort:            5432,
		PostgresUser:            "vigil",
		PostgresPassword:        "",
		PostgresDB:              "vigil",
		PostgresSSLMode:         "disable",
		PostgresMaxConnections:  10,
		PostgresMaxIdleConns:    5,
		PostgresConnMaxLifetime: 30 * time.Minute,

		ServiceName: "vigil-service",
		HealthPort:  8080,
		LogLevel:    "info",

		HouseholdsFile: "households.yaml",

		SensorTopics:     []string{"vigil/raw/+/+"},
		FlushIntervalSec: 60,

		BaselineDays:     14,
		MinReliableDays:  7,
		ReportTTLMinutes: 15,

		APIPort: 3001,
	}
}

// LoadFromEnv loads configuration from environment variables with the
// VIGIL_ prefix.
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("VIGIL_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("VIGIL_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("VIGIL_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("VIGIL_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("VIGIL_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("VIGIL_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("VIGIL_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("VIGIL_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("VIGIL_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("VIGIL_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("VIGIL_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("VIGIL_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("VIGIL_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("VIGIL_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("VIGIL_POSTGRES_SSL_MODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("VIGIL_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if conns, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = conns
		}
	}

	// Service configuration
	if v := os.Getenv("VIGIL_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("VIGIL_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("VIGIL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Household registry
	if v := os.Getenv("VIGIL_HOUSEHOLDS_FILE"); v != "" {
		c.HouseholdsFile = v
	}

	// Collector configuration
	if v := os.Getenv("VIGIL_FLUSH_INTERVAL_SEC"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			c.FlushIntervalSec = interval
		}
	}

	// Analysis configuration
	if v := os.Getenv("VIGIL_BASELINE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.BaselineDays = days
		}
	}
	if v := os.Getenv("VIGIL_MIN_RELIABLE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.MinReliableDays = days
		}
	}
	if v := os.Getenv("VIGIL_REPORT_TTL_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.ReportTTLMinutes = minutes
		}
	}

	// Dashboard API configuration
	if v := os.Getenv("VIGIL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values.
func (c *Config) LoadFromFlags() {
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-ssl-mode", c.PostgresSSLMode, "Postgres SSL mode")

	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	pflag.StringVar(&c.HouseholdsFile, "households-file", c.HouseholdsFile, "Path to household registry YAML")

	pflag.IntVar(&c.FlushIntervalSec, "flush-interval", c.FlushIntervalSec, "Collector flush interval in seconds")

	pflag.IntVar(&c.BaselineDays, "baseline-days", c.BaselineDays, "Trailing baseline window length in days")
	pflag.IntVar(&c.MinReliableDays, "min-reliable-days", c.MinReliableDays, "Contributing days required for a reliable baseline")
	pflag.IntVar(&c.ReportTTLMinutes, "report-ttl-minutes", c.ReportTTLMinutes, "Cached analysis report TTL in minutes")

	pflag.IntVar(&c.APIPort, "api-port", c.APIPort, "Dashboard HTTP API port")

	pflag.Parse()
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("Postgres host is required")
	}
	if c.PostgresPort <= 0 || c.PostgresPort > 65535 {
		return fmt.Errorf("Postgres port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if c.BaselineDays <= 0 {
		return fmt.Errorf("baseline window must be at least 1 day")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address.
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address.
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// SlogLevel maps the configured log level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ReportTTL returns the cached report TTL as a duration.
func (c *Config) ReportTTL() time.Duration {
	return time.Duration(c.ReportTTLMinutes) * time.Minute
}
