package migrations

import "gorm.io/gorm"

// Migration001LeaderboardIndexes covers the two ranking reads: the badge pass
// snapshot (score DESC, id) and the streak board ordering.
func Migration001LeaderboardIndexes() Migration {
	return Migration{
		ID:   "001_leaderboard_indexes",
		Name: "Add leaderboard and streak ranking indexes",
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_leaderboard_score_id
					ON leaderboard_entries (score DESC, id ASC)`,
				`CREATE INDEX IF NOT EXISTS idx_daily_streaks_board
					ON daily_streaks (streak_count DESC, longest_streak DESC, updated_at DESC)`,
			)
		},
	}
}
