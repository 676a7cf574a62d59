package seeds

import (
	"context"
	"fmt"

	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type samplePuzzle struct {
	Title       string
	Description string
	Type        models.PuzzleType
	Difficulty  models.PuzzleDifficulty
	Category    string
	Tags        []string
	Solution    string
}

var samplePuzzles = []samplePuzzle{
	{
		Title:       "Knights and Knaves",
		Description: "A says 'B is a knave'. B says 'we are both knights'. Who is who?",
		Type:        models.PuzzleTypeLogic, Difficulty: models.DifficultyEasy, Category: "deduction",
		Tags:     []string{"truth-tellers", "classic"},
		Solution: `{"A":"knight","B":"knave"}`,
	},
	{
		Title:       "Magic Square",
		Description: "Fill a 3x3 grid with 1-9 so every row, column and diagonal sums to 15. Top-left is 2.",
		Type:        models.PuzzleTypeLogic, Difficulty: models.DifficultyMedium, Category: "grids",
		Tags:     []string{"numbers"},
		Solution: `{"grid":[[2,7,6],[9,5,1],[4,3,8]]}`,
	},
	{
		Title:       "River Crossing Order",
		Description: "List the crossings that get the wolf, goat and cabbage across safely.",
		Type:        models.PuzzleTypeLogic, Difficulty: models.DifficultyHard, Category: "planning",
		Tags:     []string{"classic", "sequence"},
		Solution: `{"moves":["goat",null,"wolf","goat","cabbage",null,"goat"]}`,
	},
	{
		Title:       "FizzBuzz to 15",
		Description: "Print FizzBuzz for 1..15, one value per line.",
		Type:        models.PuzzleTypeCoding, Difficulty: models.DifficultyEasy, Category: "basics",
		Tags:     []string{"loops"},
		Solution: `{"output":"1\n2\nFizz\n4\nBuzz\nFizz\n7\n8\nFizz\nBuzz\n11\nFizz\n13\n14\nFizzBuzz"}`,
	},
	{
		Title:       "Sum of Primes Below 100",
		Description: "Print the sum of all primes below 100.",
		Type:        models.PuzzleTypeCoding, Difficulty: models.DifficultyMedium, Category: "math",
		Tags:     []string{"primes"},
		Solution: `{"output":"1060"}`,
	},
	{
		Title:       "Genesis Block Hash",
		Description: "Submit the hash of the block whose header is given in the puzzle statement.",
		Type:        models.PuzzleTypeBlockchain, Difficulty: models.DifficultyHard, Category: "hashing",
		Tags:     []string{"sha256", "blocks"},
		Solution: `{"hash":"000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"}`,
	},
}

// SeedPuzzles inserts the sample puzzles that are missing by title.
func SeedPuzzles(ctx context.Context, db *gorm.DB, log zerolog.Logger) (int, error) {
	created := 0
	for _, p := range samplePuzzles {
		var count int64
		if err := db.WithContext(ctx).Model(&models.Puzzle{}).Where("title = ?", p.Title).Count(&count).Error; err != nil {
			return created, fmt.Errorf("check puzzle %q: %w", p.Title, err)
		}
		if count > 0 {
			log.Debug().Str("title", p.Title).Msg("Puzzle already exists")
			continue
		}

		puzzle := models.Puzzle{
			ID:          utils.GenerateID(),
			Title:       p.Title,
			Description: p.Description,
			Type:        p.Type,
			Difficulty:  p.Difficulty,
			Category:    p.Category,
			Tags:        models.StringArray(p.Tags),
			Solution:    models.JSON(p.Solution),
			IsPublished: true,
		}
		if err := db.WithContext(ctx).Create(&puzzle).Error; err != nil {
			return created, fmt.Errorf("create puzzle %q: %w", p.Title, err)
		}
		created++
		log.Info().Str("title", p.Title).Str("type", string(p.Type)).Msg("Puzzle added")
	}
	return created, nil
}
