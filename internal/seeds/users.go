package seeds

import (
	"context"
	"fmt"

	"github.com/pushp314/logiquest-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureUserStats creates an empty stats row for each user that lacks one.
// In production the account service does this at sign-up.
func EnsureUserStats(ctx context.Context, db *gorm.DB, userIDs ...string) error {
	for _, id := range userIDs {
		stats := models.UserStats{UserID: id}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&stats).Error; err != nil {
			return fmt.Errorf("create stats for %s: %w", id, err)
		}
	}
	return nil
}
