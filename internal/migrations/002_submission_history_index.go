package migrations

import "gorm.io/gorm"

// Migration002SubmissionHistoryIndex serves "latest attempts by user" reads on
// the audit log.
func Migration002SubmissionHistoryIndex() Migration {
	return Migration{
		ID:        "002_submission_history_index",
		Name:      "Add submission history index",
		DependsOn: []string{"001_leaderboard_indexes"},
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_submissions_user_submitted
					ON puzzle_submissions (user_id, submitted_at DESC)`,
			)
		},
	}
}
