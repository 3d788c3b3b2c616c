// WellnessHub gamification service entrypoint. Wires configuration, storage,
// services, the HTTP API and the background scheduler together.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dileepadari/wellnesshub/internal/api/dashboard"
	"github.com/dileepadari/wellnesshub/internal/cache"
	"github.com/dileepadari/wellnesshub/internal/config"
	"github.com/dileepadari/wellnesshub/internal/notify"
	"github.com/dileepadari/wellnesshub/internal/repository"
	"github.com/dileepadari/wellnesshub/internal/service/achievements"
	"github.com/dileepadari/wellnesshub/internal/service/challenges"
	"github.com/dileepadari/wellnesshub/internal/service/leaderboard"
	"github.com/dileepadari/wellnesshub/internal/service/progress"
	"github.com/dileepadari/wellnesshub/internal/service/scheduler"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting WellnessHub gamification service")

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)

	// Notifier
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notifier.Enabled {
		notifier = notify.NewWebhookNotifier(&cfg.Notifier, log)
	}

	// Services
	progressService := progress.NewService(userRepo, notifier, cfg.Gamification.ExperiencePerLevel, log)
	achievementService := achievements.NewService(achievementRepo, userRepo, progressService, notifier, log)
	challengeService := challenges.NewService(challengeRepo, userRepo, progressService, notifier, log)
	leaderboardService := leaderboard.NewService(
		userRepo,
		achievementRepo,
		challengeRepo,
		redisCache,
		cfg.Gamification.LeaderboardCacheTTL,
		log,
	)

	if cfg.Gamification.AchievementCatalog != "" {
		created, err := achievementService.SeedFromCatalog(cfg.Gamification.AchievementCatalog)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Gamification.AchievementCatalog).Msg("Failed to seed achievement catalog")
		}
		log.Info().Int("created", created).Msg("Achievement catalog seeded")
	}

	// Scheduler
	schedulerService := scheduler.NewService(cfg, achievementService, challengeService, leaderboardService, log)
	if err := schedulerService.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer schedulerService.Stop()

	// HTTP server
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "component": "postgres"})
			return
		}
		if err := redisCache.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "component": "redis"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	handler := dashboard.NewHandler(progressService, achievementService, challengeService, leaderboardService, log)
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
