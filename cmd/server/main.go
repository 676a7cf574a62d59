package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/logiquest-backend/internal/config"
	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/handlers"
	"github.com/pushp314/logiquest-backend/internal/middleware"
	"github.com/pushp314/logiquest-backend/internal/migrations"
	"github.com/pushp314/logiquest-backend/internal/routes"
	"github.com/pushp314/logiquest-backend/internal/services"
	"github.com/pushp314/logiquest-backend/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// 1. Config + logger
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("development")
		boot.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.New(cfg.Env)
	production := cfg.Env == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database + schema
	db, err := database.Connect(cfg, logger.Component(log, "database"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	applied, err := migrations.NewMigrator(db, logger.Component(log, "migrations")).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Migrations failed")
	}
	log.Info().Strs("applied", applied).Msg("Schema up to date")

	// 3. Cache
	cache := connectCache(ctx, cfg, log)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid streak timezone")
	}

	// 4. Services
	svcLog := logger.Component(log, "services")
	rewards := services.NewRewardService(db, svcLog, services.WithRewardCache(cache))
	streaks := services.NewStreakService(db, rewards, svcLog,
		services.WithLocation(loc),
		services.WithStreakCache(cache, cfg.LeaderboardCacheTTL),
	)
	submissions := services.NewSubmissionService(db, services.NewSolutionVerifier(), rewards, streaks, svcLog)
	badges := services.NewBadgeService(db, cache, svcLog)
	leaderboard := services.NewLeaderboardService(db, cache, cfg.LeaderboardCacheTTL, svcLog)

	// 5. Rate limiters
	submitLimiter := middleware.NewSubmitLimiter()
	adminLimiter := middleware.NewAdminLimiter()
	go submitLimiter.Run(ctx)
	go adminLimiter.Run(ctx)

	httpLog := logger.Component(log, "http")
	r := routes.NewRouter(httpLog, routes.Deps{
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
		Production:  production,
		Health:      handlers.NewHealthHandler(db),
		Puzzles:     handlers.NewPuzzleHandler(submissions),
		Streaks:     handlers.NewStreakHandler(streaks),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboard),
		Badges:      handlers.NewBadgeHandler(badges),
		SubmitLimit: middleware.RateLimitMiddleware(submitLimiter, httpLog),
		AdminLimit:  middleware.RateLimitMiddleware(adminLimiter, httpLog),
	})

	// 6. Start server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("timezone", loc.String()).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server gracefully...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("Server exited")
}

// connectCache returns a Redis-backed cache, or a no-op cache when Redis is
// unreachable. Leaderboards are then always read from the database.
func connectCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) services.Cache {
	client, err := database.NewRedis(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, caching disabled")
		_ = client.Close()
		return database.NopCache{}
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")
	return database.NewRedisCache(client)
}
