package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/circuitbreaker"
	"github.com/zoeholiday/pricingservice/internal/config"
	"github.com/zoeholiday/pricingservice/internal/events"
	"github.com/zoeholiday/pricingservice/internal/pricing"
	"github.com/zoeholiday/pricingservice/internal/ratelimit"
	"github.com/zoeholiday/pricingservice/internal/retry"
)

// NewCatalog returns the rule catalog the service quotes against: the rules
// file when one is configured, otherwise the built-in catalog.
func NewCatalog(cfg config.PricingConfig, logger *zap.Logger) (*pricing.Catalog, error) {
	if cfg.RulesFile == "" {
		logger.Info("Using built-in pricing catalog",
			zap.Int("rules", pricing.DefaultCatalog().Len()))
		return pricing.DefaultCatalog(), nil
	}

	rules, err := pricing.ReadRulesFile(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	catalog, err := pricing.NewCatalog(rules...)
	if err != nil {
		return nil, fmt.Errorf("invalid rules in %s: %w", cfg.RulesFile, err)
	}

	logger.Info("Loaded pricing catalog from file",
		zap.String("path", cfg.RulesFile),
		zap.Int("rules", catalog.Len()))
	return catalog, nil
}

// NewPublisher creates the quote event publisher based on configuration
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) (events.Publisher, error) {
	if !cfg.Enabled {
		logger.Info("Kafka disabled, quote events are dropped")
		return events.NoopPublisher{}, nil
	}

	publisher, err := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, logger)
	if err != nil {
		return nil, err
	}
	breaker := circuitbreaker.New("kafka", circuitbreaker.DefaultConfig(), logger)
	return events.WithCircuitBreaker(publisher, breaker), nil
}

// NewLimiter picks the rate limiter for the HTTP API. Redis gives limits shared
// across instances; without it each instance keeps its own buckets.
func NewLimiter(cfg config.RateLimitConfig, redisClient *redis.Client, logger *zap.Logger) ratelimit.Limiter {
	switch {
	case !cfg.Enabled:
		return ratelimit.AllowAll{}
	case redisClient != nil:
		logger.Info("Using Redis rate limiter",
			zap.Duration("window", cfg.Window),
			zap.Int("max_requests", cfg.MaxRequests))
		breaker := circuitbreaker.New("redis_rate_limit", circuitbreaker.DefaultConfig(), logger)
		return ratelimit.WithCircuitBreaker(ratelimit.NewRedisFixedWindow(redisClient, cfg.Window, cfg.MaxRequests), breaker)
	default:
		logger.Warn("Redis unavailable, using per-instance rate limiter",
			zap.Duration("window", cfg.Window),
			zap.Int("max_requests", cfg.MaxRequests))
		return ratelimit.NewLocalTokenBucket(cfg.Window, cfg.MaxRequests)
	}
}

// initializeRedis connects to Redis, retrying the initial ping with backoff
func initializeRedis(cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := retry.Do(ctx, "redis ping", retry.DefaultConfig(), logger, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
