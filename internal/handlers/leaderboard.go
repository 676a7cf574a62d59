package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/logiquest-backend/internal/middleware"
	"github.com/pushp314/logiquest-backend/internal/services"
)

type LeaderboardHandler struct {
	leaderboard *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboard *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// GetLeaderboard GET /api/leaderboard?sort=&period=&limit=&offset=
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		_ = c.Error(err)
		return
	}

	entries, err := h.leaderboard.Leaderboard(c.Request.Context(), services.LeaderboardQuery{
		Sort:   services.SortBy(c.Query("sort")),
		Period: services.Period(c.Query("period")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// GetMyRank GET /api/leaderboard/me/rank?sort=
func (h *LeaderboardHandler) GetMyRank(c *gin.Context) {
	rank, err := h.leaderboard.UserRank(c.Request.Context(), middleware.UserID(c), services.SortBy(c.Query("sort")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rank)
}
