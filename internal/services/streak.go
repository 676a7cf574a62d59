package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	dateLayout            = "2006-01-02"
	maxStreakRetries      = 5
	defaultStreakBoardLen = 10
	maxStreakBoardLen     = 50
	streakBoardCacheKey   = "streak_leaderboard:"
)

var errStaleStreak = errors.New("streak changed underneath transition")

// BonusAwarder grants milestone bonuses.
type BonusAwarder interface {
	AwardBonusRewards(ctx context.Context, userID string, xp, tokens int, reason string) error
}

type StreakSnapshot struct {
	StreakCount    int    `json:"streakCount"`
	LongestStreak  int    `json:"longestStreak"`
	LastActiveDate string `json:"lastActiveDate"`
}

// StreakUpdate is the outcome of CommitActivity.
type StreakUpdate struct {
	Streak            StreakSnapshot `json:"streak"`
	IsNewStreak       bool           `json:"isNewStreak"`
	StreakIncremented bool           `json:"streakIncremented"`
	MilestoneReached  bool           `json:"milestoneReached"`
	MilestoneReward   *Milestone     `json:"milestoneReward,omitempty"`
}

// StreakView is the display form of a streak. StreakCount is 0 when the
// stored streak has lapsed, even though the stored row still holds the old count.
type StreakView struct {
	StreakCount            int     `json:"streakCount"`
	LongestStreak          int     `json:"longestStreak"`
	LastActiveDate         *string `json:"lastActiveDate"`
	IsActive               bool    `json:"isActive"`
	HasSolvedToday         bool    `json:"hasSolvedToday"`
	NextMilestone          *int    `json:"nextMilestone,omitempty"`
	DaysUntilNextMilestone *int    `json:"daysUntilNextMilestone,omitempty"`
	MilestoneProgress      float64 `json:"milestoneProgress"`
}

type StreakBoardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"userId"`
	StreakCount    int    `json:"streakCount"`
	LongestStreak  int    `json:"longestStreak"`
	LastActiveDate string `json:"lastActiveDate"`
}

type StreakBoard struct {
	Leaderboard      []StreakBoardEntry `json:"leaderboard"`
	TotalActiveUsers int64              `json:"totalActiveUsers"`
	Limit            int                `json:"limit"`
}

type StreakStats struct {
	TotalActiveStreaks   int     `json:"totalActiveStreaks"`
	AverageStreakLength  float64 `json:"averageStreakLength"`
	LongestCurrentStreak int     `json:"longestCurrentStreak"`
}

type StreakService struct {
	db       *gorm.DB
	awarder  BonusAwarder
	cache    Cache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger

	// load reads the record a transition is computed from. The update that
	// follows only applies if the record's version is still the one read.
	load func(tx *gorm.DB, userID string) (models.DailyStreak, error)
}

type StreakOption func(*StreakService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StreakOption {
	return func(s *StreakService) { s.now = now }
}

// WithLocation sets the timezone whose midnight separates streak days.
func WithLocation(loc *time.Location) StreakOption {
	return func(s *StreakService) { s.loc = loc }
}

func WithStreakCache(cache Cache, ttl time.Duration) StreakOption {
	return func(s *StreakService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func NewStreakService(db *gorm.DB, awarder BonusAwarder, log zerolog.Logger, opts ...StreakOption) *StreakService {
	s := &StreakService{
		db:      db,
		awarder: awarder,
		cache:   database.NopCache{},
		loc:     time.UTC,
		now:     time.Now,
		log:     log,
		load:    loadStreak,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CommitActivity credits today's activity. At most one transition per user
// per day takes effect; concurrent callers lose the version check and
// re-evaluate against the winner's state.
func (s *StreakService) CommitActivity(ctx context.Context, userID string) (*StreakUpdate, error) {
	today := s.today()

	for attempt := 0; attempt < maxStreakRetries; attempt++ {
		update, err := s.commit(ctx, userID, today)
		if errors.Is(err, errStaleStreak) {
			s.log.Debug().Str("user_id", userID).Int("attempt", attempt+1).Msg("Streak transition lost race, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		if update.StreakIncremented {
			s.invalidateBoard(ctx)
		}
		return update, nil
	}
	return nil, fmt.Errorf("%w: user %s", ErrStreakContention, userID)
}

func (s *StreakService) commit(ctx context.Context, userID string, today time.Time) (*StreakUpdate, error) {
	var update *StreakUpdate

	err := database.InTx(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		streak, err := s.load(tx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			streak = models.DailyStreak{
				ID:             utils.GenerateID(),
				UserID:         userID,
				LastActiveDate: today,
				StreakCount:    1,
				LongestStreak:  1,
				Version:        1,
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).Create(&streak)
			if res.Error != nil {
				return fmt.Errorf("create streak: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return errStaleStreak
			}

			s.log.Info().Str("user_id", userID).Msg("Started new streak")
			update = &StreakUpdate{
				Streak:            snapshot(&streak),
				IsNewStreak:       true,
				StreakIncremented: true,
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load streak: %w", err)
		}

		days := daysBetween(civilDate(streak.LastActiveDate), today)
		if days <= 0 {
			// Already credited today. A stored date in the future (clock skew)
			// is treated the same way rather than shortening the streak.
			s.log.Debug().Str("user_id", userID).Msg("Streak already credited today")
			update = &StreakUpdate{Streak: snapshot(&streak)}
			return nil
		}

		next := streak
		next.LastActiveDate = today
		next.Version = streak.Version + 1

		var milestone *Milestone
		if days == 1 {
			next.StreakCount = streak.StreakCount + 1
			if next.StreakCount > next.LongestStreak {
				next.LongestStreak = next.StreakCount
			}
			if m, ok := MilestoneFor(next.StreakCount); ok {
				milestone = &m
			}
		} else {
			s.log.Info().Str("user_id", userID).Int("gap_days", days).Msg("Streak reset")
			next.StreakCount = 1
		}

		res := tx.Model(&models.DailyStreak{}).
			Where("id = ? AND version = ?", streak.ID, streak.Version).
			Updates(map[string]interface{}{
				"streak_count":     next.StreakCount,
				"longest_streak":   next.LongestStreak,
				"last_active_date": next.LastActiveDate,
				"version":          next.Version,
			})
		if res.Error != nil {
			return fmt.Errorf("update streak: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errStaleStreak
		}

		update = &StreakUpdate{
			Streak:            snapshot(&next),
			StreakIncremented: true,
		}

		if milestone != nil {
			// Same transaction as the winning update, so the bonus fires once.
			if err := s.awarder.AwardBonusRewards(ctx, userID, milestone.BonusXP, milestone.BonusTokens, milestoneReason(*milestone)); err != nil {
				return fmt.Errorf("award milestone %d: %w", milestone.Day, err)
			}
			update.MilestoneReached = true
			update.MilestoneReward = milestone
			s.log.Info().Str("user_id", userID).Int("milestone", milestone.Day).Msg("Streak milestone reached")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

func loadStreak(tx *gorm.DB, userID string) (models.DailyStreak, error) {
	var streak models.DailyStreak
	err := tx.Where("user_id = ?", userID).First(&streak).Error
	return streak, err
}

// DisplayStreak reports the streak as a user should see it. It never writes.
func (s *StreakService) DisplayStreak(ctx context.Context, userID string) (*StreakView, error) {
	var streak models.DailyStreak
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return buildView(0, 0, nil, false, false), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load streak: %w", err)
	}

	last := civilDate(streak.LastActiveDate)
	days := daysBetween(last, s.today())

	count := streak.StreakCount
	if days > 1 {
		count = 0
	}
	lastActive := last.Format(dateLayout)
	return buildView(count, streak.LongestStreak, &lastActive, days <= 1 && count > 0, days == 0), nil
}

func buildView(count, longest int, lastActive *string, active, today bool) *StreakView {
	view := &StreakView{
		StreakCount:       count,
		LongestStreak:     longest,
		LastActiveDate:    lastActive,
		IsActive:          active,
		HasSolvedToday:    today,
		MilestoneProgress: 100,
	}
	if m, ok := NextMilestone(count); ok {
		day := m.Day
		until := m.Day - count
		view.NextMilestone = &day
		view.DaysUntilNextMilestone = &until
		view.MilestoneProgress = math.Round(float64(count)/float64(m.Day)*1000) / 10
	}
	return view
}

// Rank is the number of users with a strictly greater streak, plus one.
// Tied users share a rank. Users without a streak have rank 0.
func (s *StreakService) Rank(ctx context.Context, userID string) (int, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.DailyStreak{}).Where("user_id = ?", userID).Count(&exists).Error; err != nil {
		return 0, fmt.Errorf("find streak: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}

	view, err := s.DisplayStreak(ctx, userID)
	if err != nil {
		return 0, err
	}

	var higher int64
	if err := s.db.WithContext(ctx).Model(&models.DailyStreak{}).
		Where("streak_count > ?", view.StreakCount).
		Count(&higher).Error; err != nil {
		return 0, fmt.Errorf("count higher streaks: %w", err)
	}
	return int(higher) + 1, nil
}

// Leaderboard lists the top streaks. Ranks follow the same tie rule as Rank.
func (s *StreakService) Leaderboard(ctx context.Context, limit int) (*StreakBoard, error) {
	if limit <= 0 {
		limit = defaultStreakBoardLen
	}
	if limit > maxStreakBoardLen {
		limit = maxStreakBoardLen
	}

	key := fmt.Sprintf("%s%d", streakBoardCacheKey, limit)
	var cached StreakBoard
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	var streaks []models.DailyStreak
	if err := s.db.WithContext(ctx).
		Order("streak_count DESC").
		Order("longest_streak DESC").
		Order("updated_at DESC").
		Limit(limit).
		Find(&streaks).Error; err != nil {
		return nil, fmt.Errorf("load streak leaderboard: %w", err)
	}

	board := &StreakBoard{Leaderboard: make([]StreakBoardEntry, len(streaks)), Limit: limit}
	for i, st := range streaks {
		rank := i + 1
		if i > 0 && st.StreakCount == streaks[i-1].StreakCount {
			rank = board.Leaderboard[i-1].Rank
		}
		board.Leaderboard[i] = StreakBoardEntry{
			Rank:           rank,
			UserID:         st.UserID,
			StreakCount:    st.StreakCount,
			LongestStreak:  st.LongestStreak,
			LastActiveDate: civilDate(st.LastActiveDate).Format(dateLayout),
		}
	}

	if err := s.activeStreaks(ctx).Count(&board.TotalActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("count active streaks: %w", err)
	}

	if err := s.cache.Set(ctx, key, board, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache streak leaderboard")
	}
	return board, nil
}

// Stats summarises streaks that are still alive (active today or yesterday).
func (s *StreakService) Stats(ctx context.Context) (*StreakStats, error) {
	var active []models.DailyStreak
	if err := s.activeStreaks(ctx).Find(&active).Error; err != nil {
		return nil, fmt.Errorf("load active streaks: %w", err)
	}

	stats := &StreakStats{TotalActiveStreaks: len(active)}
	if len(active) == 0 {
		return stats, nil
	}

	total := 0
	for _, st := range active {
		total += st.StreakCount
		if st.StreakCount > stats.LongestCurrentStreak {
			stats.LongestCurrentStreak = st.StreakCount
		}
	}
	stats.AverageStreakLength = math.Round(float64(total)/float64(len(active))*100) / 100
	return stats, nil
}

func (s *StreakService) activeStreaks(ctx context.Context) *gorm.DB {
	yesterday := s.today().AddDate(0, 0, -1)
	return s.db.WithContext(ctx).Model(&models.DailyStreak{}).
		Where("last_active_date >= ? AND streak_count > 0", yesterday)
}

func (s *StreakService) invalidateBoard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, streakBoardCacheKey+"*"); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate streak leaderboard cache")
	}
}

// today is the current civil date in the streak timezone, as midnight UTC.
func (s *StreakService) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func snapshot(st *models.DailyStreak) StreakSnapshot {
	return StreakSnapshot{
		StreakCount:    st.StreakCount,
		LongestStreak:  st.LongestStreak,
		LastActiveDate: civilDate(st.LastActiveDate).Format(dateLayout),
	}
}
