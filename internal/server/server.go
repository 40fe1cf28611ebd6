package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/config"
	"github.com/zoeholiday/pricingservice/internal/quote"
	"github.com/zoeholiday/pricingservice/internal/ratelimit"
)

// Server serves the pricing HTTP API
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer creates the HTTP server with all middleware installed. A nil
// limiter disables rate limiting. checks back the readiness endpoint.
func NewServer(cfg config.HTTPConfig, service *quote.Service, limiter ratelimit.Limiter, checks map[string]Check, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      NewRouter(service, limiter, cfg.WriteTimeout, checks),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter builds the gin engine serving the quote API
func NewRouter(service *quote.Service, limiter ratelimit.Limiter, requestTimeout time.Duration, checks map[string]Check) *gin.Engine {
	if limiter == nil {
		limiter = ratelimit.AllowAll{}
	}

	router := gin.New()
	router.Use(
		RequestLogging(),
		Recovery(),
		Metrics(),
		RateLimit(limiter),
		Timeout(requestTimeout),
	)

	newHealthService(checks).registerRoutes(router)

	handler := NewQuoteHandler(service)
	v1 := router.Group("/v1")
	{
		v1.POST("/quotes", handler.CreateQuote)
		v1.POST("/quotes/simulate", handler.SimulateQuote)
		v1.GET("/rules", handler.ListRules)
	}

	return router
}

// Start blocks serving HTTP until the server is shut down
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}

	return nil
}
