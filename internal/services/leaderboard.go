package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/models"
	apperrors "github.com/pushp314/logiquest-backend/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	leaderboardCacheKey     = "leaderboard:"
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

type SortBy string

const (
	SortByTokens           SortBy = "tokens"
	SortByScore            SortBy = "score"
	SortByPuzzlesCompleted SortBy = "puzzlesCompleted"
)

// sortColumns is the only path from user input into ORDER BY.
var sortColumns = map[SortBy]string{
	SortByTokens:           "tokens",
	SortByScore:            "score",
	SortByPuzzlesCompleted: "puzzles_completed",
}

type Period string

const (
	PeriodAllTime Period = "all"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

type LeaderboardQuery struct {
	Sort   SortBy
	Period Period
	Limit  int
	Offset int
}

type BadgeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type RankedEntry struct {
	ID               string        `json:"id"`
	Rank             int           `json:"rank"`
	UserID           string        `json:"userId"`
	Score            int           `json:"score"`
	Tokens           int           `json:"tokens"`
	PuzzlesCompleted int           `json:"puzzlesCompleted"`
	Badge            *BadgeSummary `json:"badge,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

type UserRank struct {
	UserID string `json:"userId"`
	Sort   SortBy `json:"sort"`
	Value  int    `json:"value"`
	Rank   int    `json:"rank"`
}

type LeaderboardService struct {
	db       *gorm.DB
	cache    Cache
	cacheTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewLeaderboardService(db *gorm.DB, cache Cache, ttl time.Duration, log zerolog.Logger) *LeaderboardService {
	if cache == nil {
		cache = database.NopCache{}
	}
	return &LeaderboardService{db: db, cache: cache, cacheTTL: ttl, now: time.Now, log: log}
}

// Normalize fills defaults and rejects unknown sort keys or periods.
func (q LeaderboardQuery) Normalize() (LeaderboardQuery, error) {
	if q.Sort == "" {
		q.Sort = SortByTokens
	}
	if _, ok := sortColumns[q.Sort]; !ok {
		return q, apperrors.BadRequest(fmt.Sprintf("Invalid sort %q", q.Sort))
	}
	switch q.Period {
	case "":
		q.Period = PeriodAllTime
	case PeriodAllTime, PeriodWeekly, PeriodMonthly:
	default:
		return q, apperrors.BadRequest(fmt.Sprintf("Invalid period %q", q.Period))
	}
	if q.Limit <= 0 {
		q.Limit = defaultLeaderboardLimit
	}
	if q.Limit > maxLeaderboardLimit {
		q.Limit = maxLeaderboardLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q, nil
}

func (q LeaderboardQuery) cacheKey() string {
	return fmt.Sprintf("%s%s:%s:%d:%d", leaderboardCacheKey, q.Sort, q.Period, q.Limit, q.Offset)
}

// Leaderboard returns one page of entries ranked by position in the page
// order. Weekly and monthly periods only include entries touched in that window.
func (s *LeaderboardService) Leaderboard(ctx context.Context, query LeaderboardQuery) ([]RankedEntry, error) {
	q, err := query.Normalize()
	if err != nil {
		return nil, err
	}

	key := q.cacheKey()
	var cached []RankedEntry
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	db := s.db.WithContext(ctx).Preload("Badge")
	if since, ok := s.periodStart(q.Period); ok {
		db = db.Where("updated_at >= ?", since)
	}

	var entries []models.LeaderboardEntry
	if err := db.
		Order(sortColumns[q.Sort] + " DESC").
		Order("id ASC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	ranked := make([]RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = RankedEntry{
			ID:               e.ID,
			Rank:             q.Offset + i + 1,
			UserID:           e.UserID,
			Score:            e.Score,
			Tokens:           e.Tokens,
			PuzzlesCompleted: e.PuzzlesCompleted,
			CreatedAt:        e.CreatedAt,
			UpdatedAt:        e.UpdatedAt,
		}
		if e.Badge != nil {
			ranked[i].Badge = &BadgeSummary{
				ID:          e.Badge.ID,
				Name:        e.Badge.Title,
				Description: e.Badge.Description,
				Icon:        e.Badge.IconURL,
			}
		}
	}

	if err := s.cache.Set(ctx, key, ranked, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache leaderboard")
	}
	return ranked, nil
}

// UserRank counts entries strictly ahead of the user on the sort field.
func (s *LeaderboardService) UserRank(ctx context.Context, userID string, sort SortBy) (*UserRank, error) {
	if sort == "" {
		sort = SortByTokens
	}
	column, ok := sortColumns[sort]
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("Invalid sort %q", sort))
	}

	var entry models.LeaderboardEntry
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOnLeaderboard
		}
		return nil, fmt.Errorf("load leaderboard entry: %w", err)
	}

	value := entryValue(&entry, sort)
	var ahead int64
	if err := s.db.WithContext(ctx).Model(&models.LeaderboardEntry{}).
		Where(column+" > ?", value).
		Count(&ahead).Error; err != nil {
		return nil, fmt.Errorf("count leaderboard rank: %w", err)
	}
	return &UserRank{UserID: userID, Sort: sort, Value: value, Rank: int(ahead) + 1}, nil
}

func (s *LeaderboardService) periodStart(p Period) (time.Time, bool) {
	now := s.now()
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), true
	case PeriodMonthly:
		return now.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}

func entryValue(e *models.LeaderboardEntry, sort SortBy) int {
	switch sort {
	case SortByScore:
		return e.Score
	case SortByPuzzlesCompleted:
		return e.PuzzlesCompleted
	}
	return e.Tokens
}
