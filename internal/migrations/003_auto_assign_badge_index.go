package migrations

import "gorm.io/gorm"

// Migration003AutoAssignBadgeIndex is a partial index over the badges the
// assignment pass is allowed to hand out.
func Migration003AutoAssignBadgeIndex() Migration {
	return Migration{
		ID:   "003_auto_assign_badge_index",
		Name: "Add partial index for auto-assignable badges",
		Up: func(tx *gorm.DB) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_badges_auto_assign
					ON badges (title) WHERE is_active AND is_auto_assigned`,
			)
		},
	}
}
