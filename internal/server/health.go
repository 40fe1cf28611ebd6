package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zoeholiday/pricingservice/internal/log"
)

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

// ComponentStatus is the readiness of one dependency
type ComponentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const checkTimeout = 2 * time.Second

// healthService serves liveness and readiness endpoints
type healthService struct {
	checks    map[string]Check
	startedAt time.Time
}

func newHealthService(checks map[string]Check) *healthService {
	return &healthService{checks: checks, startedAt: time.Now()}
}

func (s *healthService) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.livenessCheck)
	router.GET("/health/live", s.livenessCheck)
	router.GET("/health/ready", s.readinessCheck)
}

// livenessCheck succeeds whenever the process can respond
func (s *healthService) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// readinessCheck runs every dependency check and fails if any does
func (s *healthService) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	components := make(map[string]ComponentStatus, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			ready = false
			components[name] = ComponentStatus{Status: "unhealthy", Error: err.Error()}
			log.Warn(ctx, "Readiness check failed", zap.String("component", name), zap.Error(err))
			continue
		}
		components[name] = ComponentStatus{Status: "healthy"}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":     getOverallStatus(ready),
		"ready":      ready,
		"components": components,
	})
}

func getOverallStatus(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
