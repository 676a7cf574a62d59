package models

// All returns every table this service owns, in dependency order.
func All() []interface{} {
	return []interface{}{
		&Puzzle{},
		&Submission{},
		&PuzzleSolve{},
		&ProgressCounter{},
		&UserStats{},
		&DailyStreak{},
		&Badge{},
		&LeaderboardEntry{},
	}
}
