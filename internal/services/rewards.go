package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPPerLevel is the experience needed per level; level = experience / XPPerLevel.
const XPPerLevel = 500

type Reward struct {
	XP     int `json:"xp"`
	Tokens int `json:"tokens"`
}

var rewardTable = map[models.PuzzleDifficulty]Reward{
	models.DifficultyEasy:   {XP: 10, Tokens: 1},
	models.DifficultyMedium: {XP: 25, Tokens: 3},
	models.DifficultyHard:   {XP: 50, Tokens: 5},
}

// RewardsFor looks up the fixed reward for a difficulty.
func RewardsFor(difficulty models.PuzzleDifficulty) (Reward, bool) {
	r, ok := rewardTable[difficulty]
	return r, ok
}

// LevelFor derives the level from cumulative experience.
func LevelFor(experience int) int {
	if experience <= 0 {
		return 0
	}
	return experience / XPPerLevel
}

// RewardService applies experience and tokens to UserStats and the
// leaderboard. It joins a transaction carried on ctx.
type RewardService struct {
	db    *gorm.DB
	cache Cache
	log   zerolog.Logger
	now   func() time.Time
}

type RewardOption func(*RewardService)

// WithRewardCache sets the cache holding leaderboard pages that reward
// changes make stale.
func WithRewardCache(cache Cache) RewardOption {
	return func(s *RewardService) { s.cache = cache }
}

func NewRewardService(db *gorm.DB, log zerolog.Logger, opts ...RewardOption) *RewardService {
	s := &RewardService{db: db, cache: database.NopCache{}, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invalidateLeaderboard drops cached leaderboard pages. Call it after the
// transaction that moved scores has committed.
func (s *RewardService) invalidateLeaderboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, leaderboardCacheKey+"*"); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate leaderboard cache")
	}
}

// AwardBonusRewards grants xp and tokens outside of a puzzle solve, e.g. for
// a streak milestone.
func (s *RewardService) AwardBonusRewards(ctx context.Context, userID string, xp, tokens int, reason string) error {
	if err := s.apply(ctx, userID, xp, tokens, 0, nil); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("reason", reason).Msg("Failed to award bonus rewards")
		return err
	}

	s.log.Info().
		Str("user_id", userID).
		Int("xp", xp).
		Int("tokens", tokens).
		Str("reason", reason).
		Msg("Awarded bonus rewards")
	return nil
}

// grantSolve applies the reward for a first correct solve.
func (s *RewardService) grantSolve(ctx context.Context, userID string, reward Reward, solvedAt time.Time) error {
	return s.apply(ctx, userID, reward.XP, reward.Tokens, 1, &solvedAt)
}

func (s *RewardService) apply(ctx context.Context, userID string, xp, tokens, solved int, solvedAt *time.Time) error {
	return database.InTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		// Single UPDATE so experience, tokens and level move together.
		updates := map[string]interface{}{
			"experience":   gorm.Expr("experience + ?", xp),
			"total_tokens": gorm.Expr("total_tokens + ?", tokens),
			"level":        gorm.Expr("(experience + ?) / ?", xp, XPPerLevel),
		}
		if solvedAt != nil {
			updates["last_puzzle_solved_at"] = *solvedAt
		}

		res := tx.Model(&models.UserStats{}).Where("user_id = ?", userID).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update user stats: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			s.log.Error().Str("user_id", userID).Msg("User stats missing during reward application")
			return fmt.Errorf("%w: user %s", ErrUserStatsMissing, userID)
		}

		entry := models.LeaderboardEntry{
			ID:               utils.GenerateID(),
			UserID:           userID,
			Score:            xp,
			Tokens:           tokens,
			PuzzlesCompleted: solved,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score":             gorm.Expr("leaderboard_entries.score + excluded.score"),
				"tokens":            gorm.Expr("leaderboard_entries.tokens + excluded.tokens"),
				"puzzles_completed": gorm.Expr("leaderboard_entries.puzzles_completed + excluded.puzzles_completed"),
				"updated_at":        s.now(),
			}),
		}).Create(&entry).Error
		if err != nil {
			return fmt.Errorf("update leaderboard entry: %w", err)
		}
		return nil
	})
}
