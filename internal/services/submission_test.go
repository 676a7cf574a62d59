package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pushp314/logiquest-backend/internal/database/dbtest"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type submissionFixture struct {
	db      *gorm.DB
	clock   *testClock
	streaks *StreakService
	cache   *memCache
	svc     *SubmissionService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	db := dbtest.New(t)
	clock := newTestClock(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	cache := newMemCache()
	rewards := NewRewardService(db, testLog, WithRewardCache(cache))
	streaks := NewStreakService(db, rewards, testLog, WithClock(clock.Now))
	svc := NewSubmissionService(db, NewSolutionVerifier(), rewards, streaks, testLog)
	svc.now = clock.Now
	return &submissionFixture{db: db, clock: clock, streaks: streaks, cache: cache, svc: svc}
}

func TestSubmitFirstCorrectSolve(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyMedium, `{"answer":[3,1,2]}`)

	res, err := f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`{"answer":[3,1,2]}`))
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.XPEarned)
	require.NotNil(t, res.TokensEarned)
	assert.Equal(t, 25, *res.XPEarned)
	assert.Equal(t, 3, *res.TokensEarned)
	require.NotNil(t, res.Streak)
	assert.True(t, res.Streak.IsNewStreak)
	assert.Equal(t, 1, res.Streak.Streak.StreakCount)

	stats := loadStats(t, f.db, "u1")
	assert.Equal(t, 25, stats.Experience)
	assert.Equal(t, 3, stats.TotalTokens)
	assert.Equal(t, 0, stats.Level)
	require.NotNil(t, stats.LastPuzzleSolvedAt)

	var counter models.ProgressCounter
	require.NoError(t, f.db.First(&counter, "user_id = ? AND puzzle_type = ?", "u1", models.PuzzleTypeLogic).Error)
	assert.Equal(t, 1, counter.CompletedCount)

	var entry models.LeaderboardEntry
	require.NoError(t, f.db.First(&entry, "user_id = ?", "u1").Error)
	assert.Equal(t, 25, entry.Score)
	assert.Equal(t, 3, entry.Tokens)
	assert.Equal(t, 1, entry.PuzzlesCompleted)

	assert.EqualValues(t, 1, countRows(t, f.db, &models.Submission{}, "user_id = ?", "u1"))
	assert.EqualValues(t, 1, countRows(t, f.db, &models.PuzzleSolve{}, "user_id = ?", "u1"))
}

func TestSubmitRepeatSolveIsIdempotent(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeCoding, models.DifficultyEasy, `{"output":"hello"}`)
	attempt := json.RawMessage(`{"output":"hello"}`)

	_, err := f.svc.Submit(ctx, "u1", puzzle.ID, attempt)
	require.NoError(t, err)

	res, err := f.svc.Submit(ctx, "u1", puzzle.ID, attempt)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.XPEarned)
	assert.Equal(t, 0, *res.XPEarned)
	assert.Equal(t, 0, *res.TokensEarned)

	stats := loadStats(t, f.db, "u1")
	assert.Equal(t, 10, stats.Experience)
	assert.Equal(t, 1, stats.TotalTokens)

	var counter models.ProgressCounter
	require.NoError(t, f.db.First(&counter, "user_id = ? AND puzzle_type = ?", "u1", models.PuzzleTypeCoding).Error)
	assert.Equal(t, 1, counter.CompletedCount)

	assert.EqualValues(t, 2, countRows(t, f.db, &models.Submission{}, "user_id = ?", "u1"))
}

func TestSubmitIncorrectAttempt(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeBlockchain, models.DifficultyHard, `{"hash":"0xfeed"}`)

	res, err := f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`{"hash":"0xbeef"}`))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Nil(t, res.XPEarned)
	assert.Nil(t, res.TokensEarned)
	assert.Nil(t, res.Streak)

	var sub models.Submission
	require.NoError(t, f.db.First(&sub, "user_id = ?", "u1").Error)
	assert.False(t, sub.Result)
	assert.JSONEq(t, `{"hash":"0xbeef"}`, string(sub.AttemptData))

	assert.Zero(t, countRows(t, f.db, &models.PuzzleSolve{}, "user_id = ?", "u1"))
	assert.Zero(t, countRows(t, f.db, &models.DailyStreak{}, "user_id = ?", "u1"))
	assert.Equal(t, 0, loadStats(t, f.db, "u1").Experience)
}

func TestSubmitIncorrectThenCorrectStillRewards(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `42`)

	res, err := f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`41`))
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`42`))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 10, *res.XPEarned)
}

func TestSubmitMalformedAttemptIsRecorded(t *testing.T) {
	f := newSubmissionFixture(t)
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `{"a":1}`)

	res, err := f.svc.Submit(context.Background(), "u1", puzzle.ID, json.RawMessage(`{"a":`))
	require.NoError(t, err)
	assert.False(t, res.Success)

	var sub models.Submission
	require.NoError(t, f.db.First(&sub, "user_id = ?", "u1").Error)
	assert.JSONEq(t, `"{\"a\":"`, string(sub.AttemptData))
}

func TestSubmitPuzzleNotFound(t *testing.T) {
	f := newSubmissionFixture(t)
	createStats(t, f.db, "u1", 0)

	_, err := f.svc.Submit(context.Background(), "u1", "missing", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPuzzleNotFound))
	assert.Zero(t, countRows(t, f.db, &models.Submission{}, "1 = 1"))
}

func TestSubmitMissingStatsRollsBack(t *testing.T) {
	f := newSubmissionFixture(t)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `true`)

	_, err := f.svc.Submit(context.Background(), "nostats", puzzle.ID, json.RawMessage(`true`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserStatsMissing))

	assert.Zero(t, countRows(t, f.db, &models.Submission{}, "user_id = ?", "nostats"))
	assert.Zero(t, countRows(t, f.db, &models.PuzzleSolve{}, "user_id = ?", "nostats"))
	assert.Zero(t, countRows(t, f.db, &models.ProgressCounter{}, "user_id = ?", "nostats"))
	assert.Zero(t, countRows(t, f.db, &models.LeaderboardEntry{}, "user_id = ?", "nostats"))
}

func TestSubmitUnknownDifficultyRollsBack(t *testing.T) {
	f := newSubmissionFixture(t)
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.PuzzleDifficulty("LEGENDARY"), `1`)

	_, err := f.svc.Submit(context.Background(), "u1", puzzle.ID, json.RawMessage(`1`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDifficulty))
	assert.Zero(t, countRows(t, f.db, &models.PuzzleSolve{}, "user_id = ?", "u1"))
}

func TestSubmitCrossesLevel(t *testing.T) {
	f := newSubmissionFixture(t)
	createStats(t, f.db, "u1", 490)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeCoding, models.DifficultyHard, `{"output":"ok"}`)

	_, err := f.svc.Submit(context.Background(), "u1", puzzle.ID, json.RawMessage(`{"output":"ok"}`))
	require.NoError(t, err)

	stats := loadStats(t, f.db, "u1")
	assert.Equal(t, 540, stats.Experience)
	assert.Equal(t, 1, stats.Level)
}

func TestSubmitConcurrentSolvesRewardOnce(t *testing.T) {
	f := newSubmissionFixture(t)
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyHard, `{"x":1}`)

	const workers = 8
	var wg sync.WaitGroup
	earned := make([]int, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Submit(context.Background(), "u1", puzzle.ID, json.RawMessage(`{"x":1}`))
			errs[i] = err
			if err == nil && res.XPEarned != nil {
				earned[i] = *res.XPEarned
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		total += earned[i]
	}
	assert.Equal(t, 50, total)
	assert.Equal(t, 50, loadStats(t, f.db, "u1").Experience)
	assert.EqualValues(t, workers, countRows(t, f.db, &models.Submission{}, "user_id = ?", "u1"))
}

func TestSubmitMilestoneBonusLandsInStats(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)

	var last *SubmitResult
	for day := 0; day < 3; day++ {
		puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `1`)
		res, err := f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`1`))
		require.NoError(t, err)
		last = res
		f.clock.advanceDays(1)
	}

	require.NotNil(t, last.Streak)
	assert.True(t, last.Streak.MilestoneReached)
	assert.Equal(t, 3, last.Streak.MilestoneReward.Day)

	stats := loadStats(t, f.db, "u1")
	assert.Equal(t, 3*10+50, stats.Experience)
	assert.Equal(t, 3*1+5, stats.TotalTokens)
}

func TestProgressReport(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)

	logic := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `1`)
	coding := createPuzzle(t, f.db, models.PuzzleTypeCoding, models.DifficultyEasy, `{"output":"x"}`)
	_, err := f.svc.Submit(ctx, "u1", logic.ID, json.RawMessage(`1`))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "u1", coding.ID, json.RawMessage(`{"output":"x"}`))
	require.NoError(t, err)

	report, err := f.svc.Progress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, report.Stats.Experience)
	require.Len(t, report.Progress, 2)
	assert.Equal(t, models.PuzzleTypeCoding, report.Progress[0].PuzzleType)
	assert.Equal(t, models.PuzzleTypeLogic, report.Progress[1].PuzzleType)

	_, err = f.svc.Progress(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrUserStatsMissing))
}

func TestListPuzzles(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `1`)
	createPuzzle(t, f.db, models.PuzzleTypeCoding, models.DifficultyHard, `{"output":"x"}`)
	draft := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `1`)
	require.NoError(t, f.db.Model(&draft).Update("is_published", false).Error)

	all, err := f.svc.ListPuzzles(ctx, PuzzleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	logic, err := f.svc.ListPuzzles(ctx, PuzzleFilter{Type: models.PuzzleTypeLogic})
	require.NoError(t, err)
	require.Len(t, logic, 1)
	assert.Equal(t, []string{"test"}, []string(logic[0].Tags))
	assert.Empty(t, logic[0].Solution)

	hard, err := f.svc.ListPuzzles(ctx, PuzzleFilter{Difficulty: models.DifficultyHard})
	require.NoError(t, err)
	require.Len(t, hard, 1)
	assert.Equal(t, models.PuzzleTypeCoding, hard[0].Type)
}

func TestSubmitScalarSolution(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	answer := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `42`)
	truth := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `true`)

	res, err := f.svc.Submit(ctx, "u1", answer.ID, json.RawMessage(`41`))
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = f.svc.Submit(ctx, "u1", answer.ID, json.RawMessage(`42.0`))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 10, *res.XPEarned)

	res, err = f.svc.Submit(ctx, "u1", truth.ID, json.RawMessage(`true`))
	require.NoError(t, err)
	assert.True(t, res.Success)

	var subs []models.Submission
	require.NoError(t, f.db.Where("puzzle_id = ?", answer.ID).Order("submitted_at, id").Find(&subs).Error)
	require.Len(t, subs, 2)
	assert.ElementsMatch(t, []string{"41", "42.0"}, []string{string(subs[0].AttemptData), string(subs[1].AttemptData)})

	puzzles, err := f.svc.ListPuzzles(ctx, PuzzleFilter{Type: models.PuzzleTypeLogic})
	require.NoError(t, err)
	assert.Len(t, puzzles, 2)
	assert.Equal(t, 20, loadStats(t, f.db, "u1").Experience)
}

func TestSubmitInvalidatesLeaderboardCache(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `{"a":1}`)

	_, err := f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`{"a":2}`))
	require.NoError(t, err)
	assert.Empty(t, f.cache.invalidated)

	_, err = f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{leaderboardCacheKey + "*"}, f.cache.invalidated)

	_, err = f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Len(t, f.cache.invalidated, 1)
}

func TestSubmitMilestoneInvalidatesLeaderboardCache(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	createStats(t, f.db, "u1", 0)
	createStreak(t, f.db, "u1", 2, 2, f.clock.Now().AddDate(0, 0, -1))
	puzzle := createPuzzle(t, f.db, models.PuzzleTypeLogic, models.DifficultyEasy, `{"a":1}`)
	require.NoError(t, f.db.Create(&models.PuzzleSolve{UserID: "u1", PuzzleID: puzzle.ID, SubmissionID: "earlier", SolvedAt: f.clock.Now()}).Error)

	res, err := f.svc.Submit(ctx, "u1", puzzle.ID, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, 0, *res.XPEarned)
	require.True(t, res.Streak.MilestoneReached)
	assert.Equal(t, []string{leaderboardCacheKey + "*"}, f.cache.invalidated)
}
