package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhalme/vigil-platform/internal/activity"
	"github.com/mhalme/vigil-platform/internal/api"
	"github.com/mhalme/vigil-platform/pkg/config"
	"github.com/mhalme/vigil-platform/pkg/household"
	"github.com/mhalme/vigil-platform/pkg/postgres"
	"github.com/mhalme/vigil-platform/pkg/redis"
)

func main() {
	cfg := config.NewConfig()
	cfg.ServiceName = "activity-api"
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

	logger.Info("Starting Activity API",
		"redis", cfg.RedisAddress(),
		"postgres", fmt.Sprintf("%s:%d/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB),
		"api_port", cfg.APIPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	registry, err := household.Load(cfg.HouseholdsFile)
	if err != nil {
		logger.Error("Failed to load household registry", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(cfg, logger)

	pgClient := postgres.NewClient(cfg, logger)
	if err := pgClient.Connect(ctx); err != nil {
		logger.Error("Failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Disconnect()

	store := activity.NewStorage(pgClient.DB())
	server := api.NewServer(store, redisClient, registry, cfg, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(ctx)
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
		cancel()
		if err := <-serverErr; err != nil {
			logger.Error("API server shutdown failed", "error", err)
		}
	case err := <-serverErr:
		logger.Error("API server failed", "error", err)
		cancel()
	}

	if err := redisClient.Close(); err != nil {
		logger.Error("Error closing Redis connection", "error", err)
	}
	logger.Info("Activity API stopped")
}
