// Package api assembles the HTTP router.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillnexus/reputation-service/internal/api/reviews"
	"github.com/skillnexus/reputation-service/internal/middleware"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Environment string
	Handler     *reviews.Handler
	Auth        middleware.TokenValidator
	Checks      map[string]Checker
	Log         *logger.Logger
}

// NewRouter builds the gin engine with middleware, health and API routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(cfg.Log))

	router.GET("/health", healthHandler(cfg.Checks))

	v1 := router.Group("/api/v1")
	cfg.Handler.RegisterRoutes(v1, middleware.RequireAuth(cfg.Auth))

	return router
}

// healthHandler pings every dependency and reports 503 if any fails.
func healthHandler(checks map[string]Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":    overall,
			"checks":    results,
			"timestamp": time.Now().UTC(),
		})
	}
}
