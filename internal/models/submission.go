package models

import "time"

// Submission is the append-only audit log of attempts, correct or not.
type Submission struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	UserID      string    `gorm:"type:text;not null;index:idx_submissions_user_puzzle,priority:1" json:"userId"`
	PuzzleID    string    `gorm:"type:text;not null;index:idx_submissions_user_puzzle,priority:2" json:"puzzleId"`
	AttemptData JSON      `json:"attemptData"`
	Result      bool      `gorm:"not null" json:"result"`
	SubmittedAt time.Time `gorm:"not null;index" json:"submittedAt"`
}

func (Submission) TableName() string {
	return "puzzle_submissions"
}

// PuzzleSolve marks the first correct solve of a puzzle by a user. The
// composite key is what makes reward granting exactly-once.
type PuzzleSolve struct {
	UserID       string    `gorm:"primaryKey;type:text" json:"userId"`
	PuzzleID     string    `gorm:"primaryKey;type:text" json:"puzzleId"`
	SubmissionID string    `gorm:"type:text;not null" json:"submissionId"`
	SolvedAt     time.Time `json:"solvedAt"`
}

func (PuzzleSolve) TableName() string {
	return "puzzle_solves"
}
