package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"spverifier/internal/audit"
	"spverifier/internal/device"
	"spverifier/internal/did"
	"spverifier/internal/platform/config"
	"spverifier/internal/platform/httpserver"
	"spverifier/internal/platform/logger"
	"spverifier/internal/platform/metrics"
	"spverifier/internal/platform/redis"
	"spverifier/internal/presentation"
	ratelimit "spverifier/internal/ratelimit/middleware"
	rlmodels "spverifier/internal/ratelimit/models"
	rlstore "spverifier/internal/ratelimit/store"
	"spverifier/internal/storage"
	txservice "spverifier/internal/transaction/service"
	txstore "spverifier/internal/transaction/store"
	httptransport "spverifier/internal/transport/http"
	"spverifier/internal/verification"
	"spverifier/pkg/platform/middleware/metadata"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and runs the server and the audit worker until
// SIGINT or SIGTERM. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("verifier stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	store := storage.New(cfg.StoragePath, cfg.UploadsDir, log)
	if err := store.Load(ctx); err != nil {
		return fmt.Errorf("load storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	checks := map[string]httptransport.HealthCheck{}
	resolver, redisClient, err := newResolver(ctx, cfg, log, m)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		checks["redis"] = redisClient.Health
	}
	loader := did.NewLoader(resolver, log, m)

	publisher := audit.NewPublisher(cfg.Audit.Buffer, m)
	sink, closeSink, err := newAuditSink(cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeSink()

	definitions := presentation.NewService(store, log)
	devices := device.NewService(store, device.WithLogger(log), device.WithAuditPublisher(publisher))

	txOpts := []txservice.Option{
		txservice.WithLogger(log),
		txservice.WithAuditPublisher(publisher),
		txservice.WithMetrics(m),
	}
	if cfg.VerifySignatures {
		if cfg.SignatureVerifierURL == "" {
			return errors.New("VERIFY_SIGNATURES requires SIGNATURE_VERIFIER_URL")
		}
		verifier := verification.NewVerifier(verification.NewHTTPVerifier(cfg.SignatureVerifierURL, nil), loader)
		txOpts = append(txOpts, txservice.WithSignatureVerification(verifier))
	}
	arena := txstore.New()
	metrics.RegisterSize(reg, "verifier_transactions_stored", "Transactions held in memory", arena.Len)
	transactions := txservice.New(arena, store, definitions, txOpts...)

	proxies, err := metadata.ParseProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Devices:        devices,
		AdminToken:     cfg.AdminToken,
		RateLimit:      newRateLimit(cfg.RateLimit, log, m, reg),
		Checks:         checks,
		TrustedProxies: proxies,
		Verify:         httptransport.NewVerifyHandler(transactions, log),
		Definition:     httptransport.NewDefinitionHandler(definitions, log),
		Metadata:       httptransport.NewMetadataHandler(store, log),
		Admin:          httptransport.NewAdminHandler(devices, store, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audit.NewWorker(sink, publisher.Inbox(), log).Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting verifier",
			"addr", cfg.Addr,
			"verify_signatures", cfg.VerifySignatures,
			"admin_routes", cfg.AdminToken != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRateLimit(cfg config.RateLimitConfig, log *slog.Logger, m *metrics.Metrics, reg prometheus.Registerer) *ratelimit.Middleware {
	limits := map[rlmodels.Class]rlmodels.Limit{
		rlmodels.ClassWallet: {Requests: cfg.Wallet, Window: cfg.Window},
		rlmodels.ClassResult: {Requests: cfg.Result, Window: cfg.Window},
		rlmodels.ClassDevice: {Requests: cfg.Device, Window: cfg.Window},
	}
	window := rlstore.New()
	metrics.RegisterSize(reg, "verifier_rate_limit_keys", "Client keys tracked by the rate limiter", window.Len)
	return ratelimit.New(window, limits, log, ratelimit.WithMetrics(m), ratelimit.WithDisabled(cfg.Disabled))
}

func newResolver(ctx context.Context, cfg config.Server, log *slog.Logger, m *metrics.Metrics) (did.Resolver, *redis.Client, error) {
	methods := did.NewMethodResolver(did.MethodResolverOptions{
		HTTPClient: &http.Client{Timeout: cfg.DID.HTTPTimeout},
		UseHTTP:    cfg.DID.InsecureWeb,
	})
	opts := []did.CacheOption{did.WithCacheMetrics(m)}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		opts = append(opts, did.WithSharedCache(did.NewRedisCache(client)))
		log.Info("shared DID cache enabled")
	}
	return did.NewCachedResolver(methods, cfg.DID.CacheSize, cfg.DID.CacheTTL, log, opts...), client, nil
}

func newAuditSink(cfg config.AuditConfig, log *slog.Logger) (audit.Sink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewLogSink(log), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kafka: %w", err)
	}
	log.Info("audit events go to kafka", "topic", cfg.KafkaTopic)
	return sink, sink.Close, nil
}
