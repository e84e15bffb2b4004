package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/danupratama/backend-kasir/internal/config"
	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/events"
	"github.com/danupratama/backend-kasir/internal/obs"
	"github.com/danupratama/backend-kasir/internal/share"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "worker").
		Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "kasir"), nil)

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	var erpClient erp.Client
	if cfg.ERPProvider == "mock" {
		erpClient = &erp.Mock{}
	} else {
		erpClient = erp.Frappe{
			BaseURL:   cfg.ERPBaseURL,
			APIKey:    cfg.ERPAPIKey,
			APISecret: cfg.ERPAPISecret,
			HTTP:      &http.Client{Timeout: cfg.ERPTimeout},
		}
	}

	bus := &events.Bus{Log: logger}
	bus.Subscribe(events.LogNotifier{Log: logger})

	srv := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 5),
		Queues: map[string]int{
			cfg.ShareQueue: 10,
		},
		ShutdownTimeout: 15 * time.Second,
	})

	mux := asynq.NewServeMux()
	worker := &share.Worker{ERP: erpClient, Events: bus, Log: logger}
	worker.Register(mux)

	go func() {
		logger.Info().Str("queue", cfg.ShareQueue).Msg("worker starting")
		if err := srv.Run(mux); err != nil {
			logger.Fatal().Err(err).Msg("worker exited unexpectedly")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
