package models

import "time"

// DailyStreak tracks consecutive active days. LastActiveDate is a civil date
// stored as midnight UTC. Version guards concurrent transitions.
type DailyStreak struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	UserID         string    `gorm:"type:text;not null;uniqueIndex" json:"userId"`
	LastActiveDate time.Time `gorm:"type:date;not null;index" json:"lastActiveDate"`
	StreakCount    int       `gorm:"not null;default:0;index" json:"streakCount"`
	LongestStreak  int       `gorm:"not null;default:0" json:"longestStreak"`
	Version        int       `gorm:"not null;default:0" json:"-"`
}

func (DailyStreak) TableName() string {
	return "daily_streaks"
}
