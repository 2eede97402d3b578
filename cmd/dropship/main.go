package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/dropship/internal/application/orchestrator"
	"github.com/aescanero/dropship/internal/application/policy"
	"github.com/aescanero/dropship/internal/application/workflows"
	"github.com/aescanero/dropship/internal/config"
	commercemem "github.com/aescanero/dropship/pkg/adapters/commerce/memory"
	"github.com/aescanero/dropship/pkg/adapters/commerce/rest"
	eventsmem "github.com/aescanero/dropship/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/dropship/pkg/adapters/events/redis"
	"github.com/aescanero/dropship/pkg/adapters/llm"
	"github.com/aescanero/dropship/pkg/adapters/metrics/prometheus"
	policymem "github.com/aescanero/dropship/pkg/adapters/policy/memory"
	policyredis "github.com/aescanero/dropship/pkg/adapters/policy/redis"
	storagemem "github.com/aescanero/dropship/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/dropship/pkg/adapters/storage/redis"
	"github.com/aescanero/dropship/pkg/api/grpc"
	"github.com/aescanero/dropship/pkg/api/http"
	"github.com/aescanero/dropship/pkg/api/websocket"
	"github.com/aescanero/dropship/pkg/ports"

	prom "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

// infrastructure groups the adapters selected by the Redis switch
type infrastructure struct {
	events   ports.EventBus
	statuses ports.StatusStore
	policy   ports.PolicySource
	redis    *goredis.Client
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting dropship orchestrator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}

	metricsCollector := prometheus.NewCollector(prom.DefaultRegisterer)

	// Policy gate with hot reload
	baseline := policy.FromConfig(cfg.Policy)
	policyStore := policy.NewStore(baseline)
	gate := policy.NewGate(policyStore, workflows.Rules())
	reloader := policy.NewReloader(policyStore, baseline, infra.policy, metricsCollector, cfg.Policy.ReloadInterval, logger)
	reloader.Start(ctx)

	responder, err := llm.NewResponder(&llm.Config{
		Provider:       cfg.LLM.Provider,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
		RequestTimeout: cfg.LLM.RequestTimeout,
		Metrics:        metricsCollector,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("failed to create LLM responder", zap.Error(err))
	}

	deps, err := initCommerce(cfg, gate, responder, metricsCollector, logger)
	if err != nil {
		logger.Fatal("failed to create commerce backend", zap.Error(err))
	}

	specs, err := workflows.Build(cfg.Workflows, deps, gate)
	if err != nil {
		logger.Fatal("failed to build workflows", zap.Error(err))
	}

	orchestratorMgr, err := orchestrator.NewManager(specs, orchestrator.Config{
		Gate:           gate,
		Events:         infra.events,
		Statuses:       infra.statuses,
		Metrics:        metricsCollector,
		Logger:         logger,
		HealthInterval: cfg.Timeouts.HealthCheckInterval,
	})
	if err != nil {
		logger.Fatal("failed to create orchestrator", zap.Error(err))
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:           cfg.HTTPPort,
		Orchestrator:   orchestratorMgr,
		Policy:         gate,
		PolicySource:   infra.policy,
		PolicyReloader: reloader,
		Statuses:       infra.statuses,
		StopTimeout:    cfg.Timeouts.ShutdownTimeout,
		APIToken:       cfg.APIToken,
		Logger:         logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(infra.events, logger)
	if err := wsHandler.Start(ctx); err != nil {
		logger.Fatal("failed to subscribe websocket handler", zap.Error(err))
	}
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:         cfg.GRPCPort,
		Orchestrator: orchestratorMgr,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	if cfg.AutoStart {
		if err := orchestratorMgr.Initialize(ctx); err != nil {
			logger.Fatal("failed to start automation", zap.Error(err))
		}
	}

	logger.Info("dropship orchestrator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Bool("autostart", cfg.AutoStart),
		zap.String("commerce_backend", cfg.Commerce.Backend),
		zap.Bool("redis", cfg.Redis.Enabled))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(grpcServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received shutdown signal")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}

		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}

		results, err := orchestratorMgr.Shutdown(shutdownCtx)
		for _, res := range results {
			if res.TimedOut {
				logger.Warn("workflow runner did not stop in time",
					zap.String("workflow", res.Workflow),
					zap.String("state", string(res.State)))
			}
		}
		if err != nil && !errors.Is(err, orchestrator.ErrNotRunning) {
			logger.Error("orchestrator shutdown error", zap.Error(err))
		}

		reloader.Stop()

		if err := infra.close(); err != nil {
			logger.Error("infrastructure close error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("dropship orchestrator stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("dropship orchestrator shut down complete")
}

// initInfrastructure selects Redis or in-process adapters
func initInfrastructure(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*infrastructure, error) {
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, using in-memory event bus, status store and policy overrides")
		return &infrastructure{
			events:   eventsmem.NewInMemoryEventBus(logger),
			statuses: storagemem.NewInMemoryStatusStorage(),
			policy:   policymem.NewSource(),
		}, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	// Test Redis connection
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	eventBus, err := eventsredis.NewStreamsEventBus(
		redisClient,
		"dropship-orchestrator",
		fmt.Sprintf("dropship-%d", os.Getpid()),
		logger,
	)
	if err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	return &infrastructure{
		events:   eventBus,
		statuses: storageredis.NewStatusStorage(redisClient, cfg.Timeouts.StatusTTL, logger),
		policy:   policyredis.NewSource(redisClient, cfg.Redis.PolicyKey, logger),
		redis:    redisClient,
	}, nil
}

func (i *infrastructure) close() error {
	err := i.events.Close()
	if i.redis != nil {
		err = errors.Join(err, i.redis.Close())
	}
	return err
}

// initCommerce creates the commerce collaborators for the configured backend
func initCommerce(
	cfg *config.Config,
	gate *policy.Gate,
	responder ports.Responder,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) (workflows.Dependencies, error) {
	switch cfg.Commerce.Backend {
	case "memory":
		catalog := commercemem.NewCatalog(logger,
			commercemem.WithResponder(responder),
			commercemem.WithSettings(func() commercemem.Settings {
				s := gate.Snapshot()
				return commercemem.Settings{
					AutoFulfillEnabled:         s.AutoFulfillEnabled,
					AutoCustomerServiceEnabled: s.AutoCustomerServiceEnabled,
					MinDailySales:              s.MinDailySales,
					MaxProductPrice:            s.MaxProductPrice,
				}
			}))
		return workflows.Dependencies{
			Discovery:   catalog,
			Storefront:  catalog,
			Ads:         catalog,
			Fulfillment: catalog,
			Messages:    catalog,
		}, nil

	case "rest":
		client, err := rest.NewClient(rest.Config{
			BaseURL:            cfg.Commerce.BaseURL,
			APIKey:             cfg.Commerce.APIKey,
			Timeout:            cfg.Commerce.RequestTimeout,
			RateLimit:          cfg.Commerce.RateLimit,
			RateBurst:          cfg.Commerce.RateBurst,
			BreakerMaxFailures: cfg.Commerce.BreakerMaxFailures,
			BreakerTimeout:     cfg.Commerce.BreakerTimeout,
			Metrics:            metrics,
			Logger:             logger,
		})
		if err != nil {
			return workflows.Dependencies{}, err
		}
		return workflows.Dependencies{
			Discovery:   client,
			Storefront:  client,
			Ads:         client,
			Fulfillment: client,
			Messages:    client,
		}, nil

	default:
		return workflows.Dependencies{}, fmt.Errorf("unsupported commerce backend: %s", cfg.Commerce.Backend)
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
