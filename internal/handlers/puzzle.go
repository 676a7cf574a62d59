package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/logiquest-backend/internal/middleware"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/internal/services"
	apperrors "github.com/pushp314/logiquest-backend/pkg/errors"
	"github.com/pushp314/logiquest-backend/pkg/utils"
)

type PuzzleHandler struct {
	submissions *services.SubmissionService
}

func NewPuzzleHandler(submissions *services.SubmissionService) *PuzzleHandler {
	return &PuzzleHandler{submissions: submissions}
}

type SubmitRequest struct {
	Attempt json.RawMessage `json:"attempt" binding:"required"`
}

var (
	puzzleTypes = map[models.PuzzleType]bool{
		models.PuzzleTypeLogic:      true,
		models.PuzzleTypeCoding:     true,
		models.PuzzleTypeBlockchain: true,
	}
	difficulties = map[models.PuzzleDifficulty]bool{
		models.DifficultyEasy:   true,
		models.DifficultyMedium: true,
		models.DifficultyHard:   true,
	}
)

// ListPuzzles GET /api/puzzles?type=&difficulty=&category=
func (h *PuzzleHandler) ListPuzzles(c *gin.Context) {
	filter := services.PuzzleFilter{
		Type:       models.PuzzleType(c.Query("type")),
		Difficulty: models.PuzzleDifficulty(c.Query("difficulty")),
		Category:   c.Query("category"),
	}
	if filter.Type != "" && !puzzleTypes[filter.Type] {
		_ = c.Error(apperrors.BadRequest("Invalid puzzle type"))
		return
	}
	if filter.Difficulty != "" && !difficulties[filter.Difficulty] {
		_ = c.Error(apperrors.BadRequest("Invalid difficulty"))
		return
	}

	puzzles, err := h.submissions.ListPuzzles(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"puzzles": puzzles})
}

// Submit POST /api/puzzles/:id/submit
func (h *PuzzleHandler) Submit(c *gin.Context) {
	puzzleID := c.Param("id")
	if !utils.IsUUID(puzzleID) {
		_ = c.Error(services.ErrPuzzleNotFound)
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("Request body must contain an attempt"))
		return
	}

	result, err := h.submissions.Submit(c.Request.Context(), middleware.UserID(c), puzzleID, req.Attempt)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Progress GET /api/users/me/progress
func (h *PuzzleHandler) Progress(c *gin.Context) {
	report, err := h.submissions.Progress(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}
