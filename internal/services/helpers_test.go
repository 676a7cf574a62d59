package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testLog = zerolog.Nop()

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{t: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, 0, n)
}

type bonusCall struct {
	UserID string
	XP     int
	Tokens int
	Reason string
}

type recordingAwarder struct {
	mu    sync.Mutex
	calls []bonusCall
	err   error
}

func (a *recordingAwarder) AwardBonusRewards(_ context.Context, userID string, xp, tokens int, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.calls = append(a.calls, bonusCall{UserID: userID, XP: xp, Tokens: tokens, Reason: reason})
	return nil
}

// memCache is an in-process Cache with glob-suffix invalidation.
type memCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return database.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memCache) Invalidate(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

func createStats(t *testing.T, db *gorm.DB, userID string, experience int) {
	t.Helper()
	require.NoError(t, db.Create(&models.UserStats{
		UserID:     userID,
		Experience: experience,
		Level:      LevelFor(experience),
	}).Error)
}

func createPuzzle(t *testing.T, db *gorm.DB, typ models.PuzzleType, difficulty models.PuzzleDifficulty, solution string) models.Puzzle {
	t.Helper()
	puzzle := models.Puzzle{
		ID:          utils.GenerateID(),
		Title:       "Puzzle " + string(typ),
		Type:        typ,
		Difficulty:  difficulty,
		Category:    "general",
		Tags:        models.StringArray{"test"},
		Solution:    models.JSON(solution),
		IsPublished: true,
	}
	require.NoError(t, db.Create(&puzzle).Error)
	return puzzle
}

func createStreak(t *testing.T, db *gorm.DB, userID string, count, longest int, lastActive time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.DailyStreak{
		ID:             utils.GenerateID(),
		UserID:         userID,
		LastActiveDate: civilDate(lastActive),
		StreakCount:    count,
		LongestStreak:  longest,
		Version:        1,
	}).Error)
}

func createEntry(t *testing.T, db *gorm.DB, userID string, score, tokens, solved int) models.LeaderboardEntry {
	t.Helper()
	entry := models.LeaderboardEntry{
		ID:               utils.GenerateID(),
		UserID:           userID,
		Score:            score,
		Tokens:           tokens,
		PuzzlesCompleted: solved,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func loadStats(t *testing.T, db *gorm.DB, userID string) models.UserStats {
	t.Helper()
	var stats models.UserStats
	require.NoError(t, db.First(&stats, "user_id = ?", userID).Error)
	return stats
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}
