package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/danupratama/backend-kasir/internal/cache"
	"github.com/danupratama/backend-kasir/internal/cart"
	"github.com/danupratama/backend-kasir/internal/catalog"
	"github.com/danupratama/backend-kasir/internal/checkout"
	"github.com/danupratama/backend-kasir/internal/common"
	"github.com/danupratama/backend-kasir/internal/config"
	"github.com/danupratama/backend-kasir/internal/erp"
	"github.com/danupratama/backend-kasir/internal/events"
	"github.com/danupratama/backend-kasir/internal/health"
	"github.com/danupratama/backend-kasir/internal/lock"
	"github.com/danupratama/backend-kasir/internal/obs"
	"github.com/danupratama/backend-kasir/internal/profile"
	"github.com/danupratama/backend-kasir/internal/ratelimit"
	"github.com/danupratama/backend-kasir/internal/resilience"
	"github.com/danupratama/backend-kasir/internal/security"
	"github.com/danupratama/backend-kasir/internal/share"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "kasir")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "kasir-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	// Interactive calls are single attempt so a cashier action never fires
	// twice; background sync rides a retrying, breaker-guarded transport.
	erpClient, erpBackground := buildERPClients(cfg, logger)

	configCache := cache.New(redisClient, cfg.ConfigCacheTTL)
	profileSvc := &profile.Service{ERP: erpBackground, Cache: configCache}
	profileHandler := &profile.Handler{Svc: profileSvc}

	cartSvc := &cart.Service{
		Store:  cart.NewStore(redisClient, cfg.CartTTL),
		Config: profileSvc,
	}
	cartHandler := &cart.Handler{Svc: cartSvc, Validate: validator.New()}

	catalogSvc := &catalog.Service{
		ERP:       erpBackground,
		Cache:     cache.New(redisClient, cfg.CatalogCacheTTL),
		PageSize:  cfg.CatalogPageSize,
		WarmDelay: cfg.CatalogWarmDelay,
		Log:       logger,
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	bus := &events.Bus{Log: logger}
	bus.Subscribe(events.LogNotifier{Log: logger})

	checkoutSvc := &checkout.Service{
		Carts:   cartSvc,
		Profile: profileSvc,
		ERP:     erpClient,
		Events:  bus,
		Locker:  &lock.Locker{R: redisClient},
		LockTTL: cfg.ERPTimeout + 5*time.Second,
		Log:     logger,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	redisConn, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(redisConn)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	shareSvc := &share.Service{
		Client:   taskClient,
		Queue:    cfg.ShareQueue,
		MaxRetry: cfg.ShareMaxRetry,
		Events:   bus,
	}
	shareHandler := &share.Handler{Svc: shareSvc}

	limiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "kasir:rl"})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	checkoutLimiter := limiter.New(limiterStore, limiter.Rate{
		Period: time.Minute,
		Limit:  int64(cfg.CheckoutRatePerMin),
	})

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("HTTP_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{redis: redisClient, erp: erpClient},
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		ERPTimeout:   envDurationMillis("HEALTH_READY_ERP_TIMEOUT_MS", 800),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.List)

		v.Route("/pos/config", func(p chi.Router) {
			p.Get("/", profileHandler.Get)
			p.Post("/refresh", profileHandler.Refresh)
		})

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", cartHandler.Create)
			c.Route("/{id}", func(cc chi.Router) {
				cc.Get("/", cartHandler.Get)
				cc.Delete("/", cartHandler.Delete)
				cc.Post("/lines", cartHandler.AddLine)
				cc.Patch("/lines/{index}", cartHandler.UpdateLine)
				cc.Delete("/lines/{index}", cartHandler.RemoveLine)
				cc.Post("/coupons", cartHandler.ApplyCoupon)
				cc.Delete("/coupons/{code}", cartHandler.RemoveCoupon)
				cc.Put("/tax", cartHandler.SelectTax)
				cc.Put("/customer", cartHandler.SetCustomer)
				cc.Put("/credit-sale", cartHandler.SetCreditSale)
				cc.Put("/payments", cartHandler.SetPayment)
				cc.Post("/payments/autofill", cartHandler.AutoFillPayment)
				cc.Post("/round-off", cartHandler.ApplyRoundOff)
				cc.Put("/round-off", cartHandler.SetManualRoundOff)
				cc.Delete("/round-off", cartHandler.ClearRoundOff)

				cc.Group(func(g chi.Router) {
					g.Use(idem.Middleware)
					g.Use(ratelimit.Middleware(checkoutLimiter))
					g.Post("/checkout", checkoutHandler.Submit)
					g.Post("/hold", checkoutHandler.Hold)
				})
			})
		})

		v.With(idem.Middleware).Post("/share", shareHandler.Share)
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CatalogWarmEnabled {
		go catalogSvc.Warm(rootCtx)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-rootCtx.Done()
	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

// buildERPClients returns the interactive client and the background client.
// With the mock provider both are the same in-memory fake.
func buildERPClients(cfg *config.Config, logger zerolog.Logger) (erp.Client, erp.Client) {
	if cfg.ERPProvider == "mock" {
		mock := &erp.Mock{}
		return mock, mock
	}

	interactive := erp.Frappe{
		BaseURL:   cfg.ERPBaseURL,
		APIKey:    cfg.ERPAPIKey,
		APISecret: cfg.ERPAPISecret,
		HTTP: &http.Client{
			Timeout:   cfg.ERPTimeout,
			Transport: otelhttp.NewTransport(nil),
		},
	}

	breaker := resilience.NewBreaker(10, 0.5, 30*time.Second).
		WithTarget("erp").
		WithLogger(logger)
	background := erp.Frappe{
		BaseURL:   cfg.ERPBaseURL,
		APIKey:    cfg.ERPAPIKey,
		APISecret: cfg.ERPAPISecret,
		HTTP: &http.Client{
			Timeout: cfg.ERPTimeout,
			Transport: otelhttp.NewTransport(&resilience.Transport{
				Breaker:     breaker,
				MaxAttempts: 3,
				BaseBackoff: 200 * time.Millisecond,
				Jitter:      0.2,
			}),
		},
	}
	return interactive, background
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis *redis.Client
	erp   erp.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func (c readinessChecker) PingERP(ctx context.Context, timeout time.Duration) error {
	if c.erp == nil {
		return errors.New("erp client not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.erp.Ping(ctx)
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

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
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

func envInt64(key string, fallback int64) int64 {
	return int64(envInt(key, int(fallback)))
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
