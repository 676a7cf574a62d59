package services

import (
	apperrors "github.com/pushp314/logiquest-backend/pkg/errors"
)

var (
	ErrPuzzleNotFound    = apperrors.NotFound("Puzzle not found")
	ErrUserStatsMissing  = apperrors.Internal("User stats record missing")
	ErrUnknownDifficulty = apperrors.Internal("Puzzle has an unknown difficulty")
	ErrStreakContention  = apperrors.Conflict("Streak is being updated concurrently, retry")
	ErrBadgeNotFound     = apperrors.NotFound("Badge not found")
	ErrNotOnLeaderboard  = apperrors.NotFound("User not found in leaderboard")
)
