package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRecorder receives the "active today" signal after a correct submission.
type ActivityRecorder interface {
	CommitActivity(ctx context.Context, userID string) (*StreakUpdate, error)
}

// SubmitResult carries rewards only for correct submissions. A repeat solve
// reports zero rewards rather than omitting them.
type SubmitResult struct {
	Success      bool          `json:"success"`
	XPEarned     *int          `json:"xpEarned,omitempty"`
	TokensEarned *int          `json:"tokensEarned,omitempty"`
	Streak       *StreakUpdate `json:"streak,omitempty"`
}

type PuzzleFilter struct {
	Type       models.PuzzleType
	Difficulty models.PuzzleDifficulty
	Category   string
}

type ProgressReport struct {
	Stats    models.UserStats         `json:"stats"`
	Progress []models.ProgressCounter `json:"progress"`
}

type SubmissionService struct {
	db       *gorm.DB
	verifier *SolutionVerifier
	rewards  *RewardService
	streaks  ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewSubmissionService(db *gorm.DB, verifier *SolutionVerifier, rewards *RewardService, streaks ActivityRecorder, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		db:       db,
		verifier: verifier,
		rewards:  rewards,
		streaks:  streaks,
		log:      log,
		now:      time.Now,
	}
}

// Submit verifies an attempt, records it, and grants rewards on the first
// correct solve of the puzzle by this user.
func (s *SubmissionService) Submit(ctx context.Context, userID, puzzleID string, attempt json.RawMessage) (*SubmitResult, error) {
	var puzzle models.Puzzle
	if err := s.db.WithContext(ctx).First(&puzzle, "id = ?", puzzleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPuzzleNotFound
		}
		return nil, fmt.Errorf("load puzzle %s: %w", puzzleID, err)
	}

	correct := s.verifier.Verify(&puzzle, attempt)
	result := &SubmitResult{Success: correct}
	now := s.now()

	err := database.InTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		submission := models.Submission{
			ID:          utils.GenerateID(),
			UserID:      userID,
			PuzzleID:    puzzle.ID,
			AttemptData: auditPayload(attempt),
			Result:      correct,
			SubmittedAt: now,
		}
		if err := tx.Create(&submission).Error; err != nil {
			return fmt.Errorf("record submission: %w", err)
		}
		if !correct {
			return nil
		}

		// The claim row is the uniqueness check: only one caller can insert it.
		claim := models.PuzzleSolve{
			UserID:       userID,
			PuzzleID:     puzzle.ID,
			SubmissionID: submission.ID,
			SolvedAt:     now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
		if res.Error != nil {
			return fmt.Errorf("claim solve: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			result.XPEarned, result.TokensEarned = intPtr(0), intPtr(0)
			return nil
		}

		reward, ok := RewardsFor(puzzle.Difficulty)
		if !ok {
			return fmt.Errorf("%w: %q on puzzle %s", ErrUnknownDifficulty, puzzle.Difficulty, puzzle.ID)
		}

		if err := s.incrementProgress(tx, userID, puzzle.Type); err != nil {
			return err
		}
		if err := s.rewards.grantSolve(ctx, userID, reward, now); err != nil {
			return err
		}

		result.XPEarned, result.TokensEarned = intPtr(reward.XP), intPtr(reward.Tokens)
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("puzzle_id", puzzleID).Msg("Submission failed")
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("puzzle_id", puzzleID).
		Bool("correct", correct).
		Interface("xp", result.XPEarned).
		Msg("Submission processed")

	if result.XPEarned != nil && *result.XPEarned > 0 {
		s.rewards.invalidateLeaderboard(ctx)
	}

	if correct && s.streaks != nil {
		update, err := s.streaks.CommitActivity(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("record streak activity: %w", err)
		}
		result.Streak = update
		if update.MilestoneReached {
			s.rewards.invalidateLeaderboard(ctx)
		}
	}
	return result, nil
}

func (s *SubmissionService) incrementProgress(tx *gorm.DB, userID string, puzzleType models.PuzzleType) error {
	counter := models.ProgressCounter{UserID: userID, PuzzleType: puzzleType, CompletedCount: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "puzzle_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed_count": gorm.Expr("progress_counters.completed_count + excluded.completed_count"),
		}),
	}).Create(&counter).Error
	if err != nil {
		return fmt.Errorf("increment progress: %w", err)
	}
	return nil
}

// Progress returns a user's stats and per-type completion counts.
func (s *SubmissionService) Progress(ctx context.Context, userID string) (*ProgressReport, error) {
	report := &ProgressReport{}
	if err := s.db.WithContext(ctx).First(&report.Stats, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrUserStatsMissing, userID)
		}
		return nil, fmt.Errorf("load user stats: %w", err)
	}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("puzzle_type ASC").
		Find(&report.Progress).Error; err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return report, nil
}

// ListPuzzles returns published puzzles matching filter, newest first.
func (s *SubmissionService) ListPuzzles(ctx context.Context, filter PuzzleFilter) ([]models.Puzzle, error) {
	query := s.db.WithContext(ctx).Model(&models.Puzzle{}).
		Omit("solution").
		Where("is_published = ?", true)

	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var puzzles []models.Puzzle
	if err := query.Order("created_at DESC").Find(&puzzles).Error; err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}
	return puzzles, nil
}

// auditPayload keeps malformed attempts in the log as a JSON string so the
// jsonb column never rejects them.
func auditPayload(attempt json.RawMessage) models.JSON {
	if len(attempt) == 0 {
		return models.JSON("null")
	}
	if json.Valid(attempt) {
		return models.JSON(attempt)
	}
	quoted, _ := json.Marshal(string(attempt))
	return models.JSON(quoted)
}

func intPtr(v int) *int {
	return &v
}
