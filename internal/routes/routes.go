package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/logiquest-backend/internal/handlers"
	"github.com/pushp314/logiquest-backend/internal/middleware"
	"github.com/rs/zerolog"
)

// Deps is everything the route table needs.
type Deps struct {
	JWTSecret   string
	FrontendURL string
	Production  bool
	Health      *handlers.HealthHandler
	Puzzles     *handlers.PuzzleHandler
	Streaks     *handlers.StreakHandler
	Leaderboard *handlers.LeaderboardHandler
	Badges      *handlers.BadgeHandler
	SubmitLimit gin.HandlerFunc // optional
	AdminLimit  gin.HandlerFunc // optional
}

// NewRouter builds the engine with the global middleware chain, /health and
// the /api groups.
func NewRouter(log zerolog.Logger, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.ErrorHandlerMiddleware(log))
	r.Use(middleware.SecurityHeaders(d.Production))
	r.Use(middleware.CORSMiddleware(d.FrontendURL))

	r.GET("/health", d.Health.Health)
	Register(r.Group("/api"), d)
	return r
}

// Register mounts every API group under r (normally /api).
func Register(r gin.IRouter, d Deps) {
	auth := middleware.AuthMiddleware(d.JWTSecret)
	if d.SubmitLimit == nil {
		d.SubmitLimit = passThrough
	}
	if d.AdminLimit == nil {
		d.AdminLimit = passThrough
	}

	RegisterPuzzleRoutes(r, d, auth)
	RegisterStreakRoutes(r, d, auth)
	RegisterLeaderboardRoutes(r, d, auth)
	RegisterBadgeRoutes(r, d, auth)
}

func RegisterPuzzleRoutes(r gin.IRouter, d Deps, auth gin.HandlerFunc) {
	puzzles := r.Group("/puzzles")
	{
		puzzles.GET("", d.Puzzles.ListPuzzles)
		puzzles.POST("/:id/submit", auth, d.SubmitLimit, d.Puzzles.Submit)
	}

	r.GET("/users/me/progress", auth, d.Puzzles.Progress)
}

func RegisterStreakRoutes(r gin.IRouter, d Deps, auth gin.HandlerFunc) {
	streaks := r.Group("/streaks")
	{
		streaks.GET("/leaderboard", d.Streaks.GetLeaderboard)
		streaks.GET("/stats", d.Streaks.GetStats)

		me := streaks.Group("/me", auth)
		me.GET("", d.Streaks.GetMyStreak)
		me.GET("/rank", d.Streaks.GetMyRank)
	}
}

func RegisterLeaderboardRoutes(r gin.IRouter, d Deps, auth gin.HandlerFunc) {
	lb := r.Group("/leaderboard")
	{
		lb.GET("", d.Leaderboard.GetLeaderboard)
		lb.GET("/me/rank", auth, d.Leaderboard.GetMyRank)
	}
}

func RegisterBadgeRoutes(r gin.IRouter, d Deps, auth gin.HandlerFunc) {
	r.GET("/badges", d.Badges.ListBadges)

	admin := r.Group("/admin/badges", auth, middleware.AdminOnly())
	{
		admin.POST("", d.Badges.CreateBadge)
		admin.PATCH("/:id", d.Badges.UpdateBadge)
		admin.DELETE("/:id", d.Badges.DeleteBadge)
		admin.POST("/auto-assign", d.AdminLimit, d.Badges.AutoAssign)
	}
}

func passThrough(c *gin.Context) { c.Next() }
