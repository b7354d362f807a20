package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/internal/collector"
	"github.com/mhalme/vigil-platform/pkg/config"
	"github.com/mhalme/vigil-platform/pkg/health"
	"github.com/mhalme/vigil-platform/pkg/household"
	"github.com/mhalme/vigil-platform/pkg/mqtt"
	"github.com/mhalme/vigil-platform/pkg/postgres"
)

func main() {
	cfg := config.NewConfig()
	cfg.ServiceName = "collector-agent"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting Collector Agent",
		"mqtt", cfg.MQTTAddress(),
		"postgres", fmt.Sprintf("%s:%d/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	registry, err := household.Load(cfg.HouseholdsFile)
	if err != nil {
		logger.Error("Failed to load household registry", "error", err)
		os.Exit(1)
	}

	mqttClient := mqtt.NewClient(cfg, logger)

	pgClient := postgres.NewClient(cfg, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Disconnect()

	store := activity.NewStorage(pgClient.DB())
	agent := collector.NewAgent(mqttClient, store, registry, cfg, logger)

	checker := health.NewChecker(mqttClient, pgClient, logger)
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", checker.HandlerFunc())
		mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())
		addr := fmt.Sprintf(":%d", cfg.HealthPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Health server failed", "error", err)
		}
	}()

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	cancel()
	agent.Stop()
	logger.Info("Collector agent stopped")
}
