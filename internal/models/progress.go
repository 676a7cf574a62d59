package models

import "time"

// ProgressCounter counts first-time solves per puzzle type. Only ever incremented.
type ProgressCounter struct {
	UserID         string     `gorm:"primaryKey;type:text" json:"userId"`
	PuzzleType     PuzzleType `gorm:"primaryKey;type:text" json:"puzzleType"`
	CompletedCount int        `gorm:"not null;default:0" json:"completedCount"`
}

func (ProgressCounter) TableName() string {
	return "progress_counters"
}

// UserStats is created alongside the user account (outside this service).
// Level is always Experience / XPPerLevel and is never written on its own.
type UserStats struct {
	UserID             string     `gorm:"primaryKey;type:text" json:"userId"`
	Experience         int        `gorm:"not null;default:0" json:"experience"`
	Level              int        `gorm:"not null;default:0" json:"level"`
	TotalTokens        int        `gorm:"not null;default:0" json:"totalTokens"`
	LastPuzzleSolvedAt *time.Time `json:"lastPuzzleSolvedAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
