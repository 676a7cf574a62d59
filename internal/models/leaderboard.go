package models

import "time"

// LeaderboardEntry is the per-user aggregate used for ranking. BadgeID is a
// cache written by the badge pass, not a source of truth.
type LeaderboardEntry struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`

	UserID           string `gorm:"type:text;not null;uniqueIndex" json:"userId"`
	Score            int    `gorm:"not null;default:0;index" json:"score"`
	Tokens           int    `gorm:"not null;default:0;index" json:"tokens"`
	PuzzlesCompleted int    `gorm:"not null;default:0;index" json:"puzzlesCompleted"`

	BadgeID *string `gorm:"type:text;index" json:"badgeId"`
	Badge   *Badge  `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}
