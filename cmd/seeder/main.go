package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pushp314/logiquest-backend/internal/config"
	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/middleware"
	"github.com/pushp314/logiquest-backend/internal/migrations"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/internal/seeds"
	"github.com/pushp314/logiquest-backend/internal/services"
	"github.com/pushp314/logiquest-backend/pkg/logger"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type demoUser struct {
	ID    string
	Role  string
	Score int
}

var demoUsers = []demoUser{
	{ID: "demo-admin", Role: middleware.RoleAdmin, Score: 0},
	{ID: "demo-alice", Role: "USER", Score: 420},
	{ID: "demo-bob", Role: "USER", Score: 310},
	{ID: "demo-carol", Role: "USER", Score: 150},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("development")
		boot.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logger.New(cfg.Env)
	ctx := context.Background()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	log.Info().Msg("Running migrations (just in case)...")
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	if _, err := migrations.NewMigrator(db, log).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migrations failed")
	}

	badges := services.NewBadgeService(db, nil, log)
	created, err := badges.SeedDefaults(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed badges")
	}
	log.Info().Int("created", created).Msg("Badges seeded")

	created, err = seeds.SeedPuzzles(ctx, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed puzzles")
	}
	log.Info().Int("created", created).Msg("Puzzles seeded")

	if err := seedDemoUsers(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed demo users")
	}

	summary, err := badges.AutoAssign(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Badge assignment failed")
	}
	log.Info().Interface("summary", summary).Msg("Badges assigned")

	printTokens(cfg.JWTSecret, log)
	log.Info().Msg("Seeding completed")
}

func seedDemoUsers(ctx context.Context, db *gorm.DB) error {
	ids := make([]string, len(demoUsers))
	for i, u := range demoUsers {
		ids[i] = u.ID
	}
	if err := seeds.EnsureUserStats(ctx, db, ids...); err != nil {
		return err
	}

	for _, u := range demoUsers {
		if u.Score == 0 {
			continue
		}
		entry := models.LeaderboardEntry{
			ID:               utils.GenerateID(),
			UserID:           u.ID,
			Score:            u.Score,
			Tokens:           u.Score / 10,
			PuzzlesCompleted: u.Score / 25,
		}
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
			Create(&entry).Error
		if err != nil {
			return fmt.Errorf("leaderboard entry for %s: %w", u.ID, err)
		}
	}
	return nil
}

// printTokens issues a 30 day bearer token per demo user for manual testing.
func printTokens(secret string, log zerolog.Logger) {
	for _, u := range demoUsers {
		token, err := utils.GenerateToken(secret, u.ID, u.Role, 30*24*time.Hour)
		if err != nil {
			log.Error().Err(err).Str("user", u.ID).Msg("Failed to issue token")
			continue
		}
		fmt.Printf("%-12s %-6s %s\n", u.ID, u.Role, token)
	}
}
