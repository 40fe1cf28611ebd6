package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/circuitbreaker"
	"github.com/zoeholiday/pricingservice/internal/domain"
	"github.com/zoeholiday/pricingservice/internal/log"
	"github.com/zoeholiday/pricingservice/internal/metrics"
	"github.com/zoeholiday/pricingservice/internal/ratelimit"
	"github.com/zoeholiday/pricingservice/internal/tracing"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogging assigns a request ID, opens a span and logs each request when
// it completes.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)

		ctx, span := tracing.StartSpan(c.Request.Context(), "HTTP "+c.Request.Method+" "+routeOf(c),
			attribute.String("http.method", c.Request.Method),
			attribute.String("request_id", requestID))
		defer span.End()

		ctx = log.WithRequestID(ctx, requestID)
		if traceID := tracing.TraceID(ctx); traceID != "" {
			ctx = log.WithTraceID(ctx, traceID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)
		tracing.SetAttributes(ctx, attribute.Int("http.status_code", status))

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error(ctx, "HTTP request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn(ctx, "HTTP request rejected", fields...)
		default:
			log.Info(ctx, "HTTP request completed", fields...)
		}
	}
}

// Metrics records request counts and latency per route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTPRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

// RateLimit rejects clients that exceed limiter. Errors from the limiter let
// the request through.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/health") {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		allowed, err := limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
				log.Warn(ctx, "Rate limiter unavailable, allowing request", zap.Error(err))
			}
			metrics.RecordError("rate_limiter", "server")
			c.Next()
			return
		}

		if !allowed {
			metrics.RecordRateLimited()
			log.Warn(ctx, "Rate limit exceeded",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", "1")
			abortWithError(c, domain.NewRateLimitedError())
			return
		}

		c.Next()
	}
}

// Timeout bounds the time a handler may spend on a request
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Recovery turns panics into 500 responses
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		ctx := c.Request.Context()
		log.Error(ctx, "Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"))
		metrics.RecordError("panic", "server")
		abortWithError(c, domain.NewInternalError("internal server error", nil))
	})
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
