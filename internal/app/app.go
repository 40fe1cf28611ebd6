package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zoeholiday/pricingservice/internal/config"
	"github.com/zoeholiday/pricingservice/internal/events"
	"github.com/zoeholiday/pricingservice/internal/log"
	"github.com/zoeholiday/pricingservice/internal/metrics"
	"github.com/zoeholiday/pricingservice/internal/pricing"
	"github.com/zoeholiday/pricingservice/internal/quote"
	"github.com/zoeholiday/pricingservice/internal/server"
	"github.com/zoeholiday/pricingservice/internal/tracing"
)

// App represents the application
type App struct {
	config          *config.Config
	logger          *zap.Logger
	redisClient     *redis.Client
	publisher       events.Publisher
	httpServer      *server.Server
	metricsServer   *metrics.Server
	shutdownTracing func(context.Context)
}

// New creates a new application instance
func New(cfg *config.Config) (*App, error) {
	// Initialize logger
	if err := log.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := log.L(context.Background())

	logger.Info("Initializing pricing service application",
		zap.String("app_name", cfg.AppName),
		zap.String("http_address", cfg.HTTP.Address))

	a := &App{config: cfg, logger: logger}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(tracing.Config{
			ServiceName:    cfg.AppName,
			ServiceVersion: cfg.Tracing.ServiceVersion,
			Environment:    cfg.Tracing.Environment,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SamplingRatio:  cfg.Tracing.SamplingRatio,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		a.shutdownTracing = shutdown
	}

	// Initialize Redis client (optional)
	if cfg.Redis.Enabled {
		redisClient, err := initializeRedis(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis initialization failed, continuing without Redis",
				zap.Error(err),
				zap.String("redis_addr", cfg.Redis.Addr))
		} else {
			a.redisClient = redisClient
		}
	}

	catalog, err := NewCatalog(cfg.Pricing, logger)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to load pricing catalog: %w", err)
	}

	publisher, err := NewPublisher(cfg.Kafka, logger)
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	a.publisher = publisher

	service := quote.NewService(
		pricing.NewCalculator(catalog),
		pricing.NewFormatter(cfg.Pricing.CurrencySymbol, cfg.Pricing.Locale),
		quote.WithPublisher(publisher),
	)
	limiter := NewLimiter(cfg.RateLimit, a.redisClient, logger)
	a.httpServer = server.NewServer(cfg.HTTP, service, limiter, a.readinessChecks(), logger)

	if cfg.Metrics.Enabled {
		a.metricsServer = metrics.NewServer(cfg.Metrics.Address, nil, logger)
	}

	return a, nil
}

// Run serves until ctx is cancelled or a server fails, then shuts down
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting pricing service application")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.httpServer.Start(gctx)
	})
	if a.metricsServer != nil {
		g.Go(func() error {
			return a.metricsServer.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down pricing service application")

	var firstErr error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		firstErr = err
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to shut down metrics server", zap.Error(err))
		}
	}

	a.closeResources()
	if a.shutdownTracing != nil {
		a.shutdownTracing(ctx)
	}

	a.logger.Info("Application shutdown complete")
	_ = a.logger.Sync()
	return firstErr
}

func (a *App) readinessChecks() map[string]server.Check {
	checks := make(map[string]server.Check)
	if a.redisClient != nil {
		client := a.redisClient
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}

func (a *App) closeResources() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}

	// Close Redis client
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
}
