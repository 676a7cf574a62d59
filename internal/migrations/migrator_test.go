package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/pushp314/logiquest-backend/internal/database/dbtest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigratorAppliesOnce(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	m := NewMigrator(db, zerolog.Nop())

	ran, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_leaderboard_indexes",
		"002_submission_history_index",
		"003_auto_assign_badge_index",
	}, ran)

	ran, err = m.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	var count int64
	require.NoError(t, db.Model(&MigrationRecord{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	for _, idx := range []string{"idx_leaderboard_score_id", "idx_daily_streaks_board", "idx_submissions_user_submitted", "idx_badges_auto_assign"} {
		assert.True(t, db.Migrator().HasIndex("leaderboard_entries", idx) ||
			db.Migrator().HasIndex("daily_streaks", idx) ||
			db.Migrator().HasIndex("puzzle_submissions", idx) ||
			db.Migrator().HasIndex("badges", idx), idx)
	}
}

func TestMigratorRollsBackFailedMigration(t *testing.T) {
	db := dbtest.New(t)
	m := &Migrator{
		db:  db,
		log: zerolog.Nop(),
		migrations: []Migration{{
			ID:   "900_broken",
			Name: "broken",
			Up: func(tx *gorm.DB) error {
				return errors.New("boom")
			},
		}},
	}

	_, err := m.Run(context.Background())
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&MigrationRecord{}).Where("id = ?", "900_broken").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMigratorChecksDependencies(t *testing.T) {
	db := dbtest.New(t)
	m := &Migrator{
		db:  db,
		log: zerolog.Nop(),
		migrations: []Migration{{
			ID:        "901_orphan",
			DependsOn: []string{"000_missing"},
			Up:        func(tx *gorm.DB) error { return nil },
		}},
	}

	_, err := m.Run(context.Background())
	assert.ErrorContains(t, err, "depends on 000_missing")
}
