package services

import (
	"encoding/json"
	"reflect"

	"github.com/pushp314/logiquest-backend/internal/models"
)

// VerifyFunc reports whether attempt matches the stored solution. It must be
// pure: no I/O, same inputs same answer.
type VerifyFunc func(solution, attempt []byte) bool

// SolutionVerifier dispatches on puzzle type. Types without a registered
// strategy are always incorrect.
type SolutionVerifier struct {
	strategies map[models.PuzzleType]VerifyFunc
}

func NewSolutionVerifier() *SolutionVerifier {
	return &SolutionVerifier{
		strategies: map[models.PuzzleType]VerifyFunc{
			models.PuzzleTypeLogic:      verifyStructural,
			models.PuzzleTypeCoding:     verifyField("output"),
			models.PuzzleTypeBlockchain: verifyField("hash"),
		},
	}
}

func (v *SolutionVerifier) Verify(puzzle *models.Puzzle, attempt []byte) bool {
	if puzzle == nil {
		return false
	}
	strategy, ok := v.strategies[puzzle.Type]
	if !ok {
		return false
	}
	return strategy(puzzle.Solution, attempt)
}

// LOGIC: the attempt must be the same JSON value as the solution, ignoring
// key order and number formatting.
func verifyStructural(solution, attempt []byte) bool {
	var want, got interface{}
	if err := json.Unmarshal(solution, &want); err != nil || want == nil {
		return false
	}
	if err := json.Unmarshal(attempt, &got); err != nil {
		return false
	}
	return reflect.DeepEqual(want, got)
}

// CODING and BLOCKCHAIN compare one precomputed field. Output must already
// have been produced by the external runner; nothing is executed here.
func verifyField(name string) VerifyFunc {
	return func(solution, attempt []byte) bool {
		want, ok := objectField(solution, name)
		if !ok || want == nil {
			return false
		}
		got, ok := objectField(attempt, name)
		if !ok {
			return false
		}
		return reflect.DeepEqual(want, got)
	}
}

func objectField(raw []byte, name string) (interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}
