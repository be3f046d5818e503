// Command server runs the SkillNexus reputation service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skillnexus/reputation-service/internal/api"
	"github.com/skillnexus/reputation-service/internal/api/reviews"
	"github.com/skillnexus/reputation-service/internal/auth"
	"github.com/skillnexus/reputation-service/internal/cache"
	"github.com/skillnexus/reputation-service/internal/config"
	"github.com/skillnexus/reputation-service/internal/mattermost"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/service/analytics"
	"github.com/skillnexus/reputation-service/internal/service/badges"
	"github.com/skillnexus/reputation-service/internal/service/endorsements"
	"github.com/skillnexus/reputation-service/internal/service/moderation"
	"github.com/skillnexus/reputation-service/internal/service/reputation"
	reviewsvc "github.com/skillnexus/reputation-service/internal/service/reviews"
	"github.com/skillnexus/reputation-service/internal/service/scheduler"
	"github.com/skillnexus/reputation-service/internal/service/trust"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reputation service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()
	log.Info().Str("environment", cfg.Server.Environment).Msg("Starting reputation service")

	if cfg.Database.Postgres.MigrateOnStart {
		if err := repository.Migrate(cfg.Database.Postgres.URL(), log); err != nil {
			return err
		}
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	redisCache, err := cache.NewRedis(&cfg.Database.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}()

	// Repositories
	reviewRepo := repository.NewReviewRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	trustRepo := repository.NewTrustRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	reportRepo := repository.NewReportRepository(db)
	endorsementRepo := repository.NewEndorsementRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	notifier := mattermost.NewClient(&cfg.Mattermost, log)
	badgeService := badges.NewService(badgeRepo, log)
	trustService := trust.NewService(reviewRepo, bookingRepo, trustRepo, badgeService, redisCache, log)
	reviewService := reviewsvc.NewService(reviewRepo, bookingRepo, trustService, cfg.Reputation.DefaultModerationStatus, log)
	moderationService := moderation.NewService(
		reviewRepo,
		reportRepo,
		trustService,
		notifier,
		moderation.PolicyFromConfig(&cfg.Reputation, &cfg.Moderation),
		log,
	)
	reputationService := reputation.NewService(trustRepo, badgeRepo, endorsementRepo, redisCache, cfg.Cache.ProfileTTLDuration(), log)
	endorsementService := endorsements.NewService(endorsementRepo, userRepo, redisCache, log)
	analyticsService := analytics.NewService(reviewRepo, log)

	schedulerService := scheduler.NewService(&cfg.Scheduler, trustService, reportRepo, notifier, redisCache, log)
	if err := schedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer schedulerService.Stop()

	handler := reviews.NewHandler(reviews.Services{
		Reviews:      reviewService,
		Moderation:   moderationService,
		Reputation:   reputationService,
		Badges:       badgeService,
		Endorsements: endorsementService,
		Analytics:    analyticsService,
	}, log)

	router := api.NewRouter(api.RouterConfig{
		Environment: cfg.Server.Environment,
		Handler:     handler,
		Auth:        auth.NewFromConfig(&cfg.Auth),
		Checks: map[string]api.Checker{
			"database": db.Health,
			"redis":    redisCache.Ping,
		},
		Log: log,
	})

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	servers := []*http.Server{server}
	if cfg.Metrics.Prometheus.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Prometheus.Path, promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Prometheus.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server error, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Str("addr", srv.Addr).Msg("Forced shutdown")
		}
	}

	log.Info().Msg("Reputation service stopped")
	return nil
}
