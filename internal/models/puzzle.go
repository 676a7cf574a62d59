package models

import "time"

type PuzzleType string
type PuzzleDifficulty string

const (
	PuzzleTypeLogic      PuzzleType = "LOGIC"
	PuzzleTypeCoding     PuzzleType = "CODING"
	PuzzleTypeBlockchain PuzzleType = "BLOCKCHAIN"

	DifficultyEasy   PuzzleDifficulty = "EASY"
	DifficultyMedium PuzzleDifficulty = "MEDIUM"
	DifficultyHard   PuzzleDifficulty = "HARD"
)

// Puzzle is immutable once published. Solution holds the precomputed answer:
// the raw structure for LOGIC, {"output": ...} for CODING, {"hash": ...} for BLOCKCHAIN.
type Puzzle struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Title       string           `json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Type        PuzzleType       `gorm:"type:text;not null;index" json:"type"`
	Difficulty  PuzzleDifficulty `gorm:"type:text;not null" json:"difficulty"`
	Category    string           `gorm:"index" json:"category"`
	Tags        StringArray      `json:"tags"`

	Solution    JSON `json:"-"` // Hidden from users
	IsPublished bool `gorm:"index" json:"isPublished"`
}

func (Puzzle) TableName() string {
	return "puzzles"
}
