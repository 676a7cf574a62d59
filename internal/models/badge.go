package models

import "time"

// Badge is rank-derived reference data. Rank orders badges for display and is
// unique; which leaderboard positions receive a badge is decided by title.
type Badge struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title          string `gorm:"uniqueIndex;not null" json:"title"`
	Description    string `json:"description"`
	IconURL        string `json:"iconUrl"`
	Rank           int    `gorm:"uniqueIndex;not null" json:"rank"`
	IsActive       bool   `gorm:"not null" json:"isActive"`
	IsAutoAssigned bool   `gorm:"not null" json:"isAutoAssigned"`
}

func (Badge) TableName() string {
	return "badges"
}
