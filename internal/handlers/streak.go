package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/logiquest-backend/internal/middleware"
	"github.com/pushp314/logiquest-backend/internal/services"
	apperrors "github.com/pushp314/logiquest-backend/pkg/errors"
)

type StreakHandler struct {
	streaks *services.StreakService
}

func NewStreakHandler(streaks *services.StreakService) *StreakHandler {
	return &StreakHandler{streaks: streaks}
}

// GetMyStreak GET /api/streaks/me
func (h *StreakHandler) GetMyStreak(c *gin.Context) {
	view, err := h.streaks.DisplayStreak(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMyRank GET /api/streaks/me/rank
func (h *StreakHandler) GetMyRank(c *gin.Context) {
	rank, err := h.streaks.Rank(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rank": rank})
}

// GetLeaderboard GET /api/streaks/leaderboard?limit=
func (h *StreakHandler) GetLeaderboard(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		_ = c.Error(err)
		return
	}

	board, err := h.streaks.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// GetStats GET /api/streaks/stats
func (h *StreakHandler) GetStats(c *gin.Context) {
	stats, err := h.streaks.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.BadRequest("Query parameter " + key + " must be an integer")
	}
	return v, nil
}
