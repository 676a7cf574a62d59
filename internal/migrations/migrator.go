package migrations

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Migration is a schema change that AutoMigrate cannot express.
type Migration struct {
	ID        string // Unique identifier, e.g. "001_leaderboard_indexes"
	Name      string
	Up        func(tx *gorm.DB) error
	DependsOn []string
}

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

type Migrator struct {
	db         *gorm.DB
	migrations []Migration
	log        zerolog.Logger
}

func NewMigrator(db *gorm.DB, log zerolog.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: All(),
		log:        log,
	}
}

// Run applies pending migrations in order, each in its own transaction.
// It returns the IDs it applied.
func (m *Migrator) Run(ctx context.Context) ([]string, error) {
	db := m.db.WithContext(ctx)

	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []MigrationRecord
	if err := db.Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch applied migrations: %w", err)
	}

	done := make(map[string]bool, len(applied))
	for _, r := range applied {
		done[r.ID] = true
	}

	var ran []string
	for _, migration := range m.migrations {
		if done[migration.ID] {
			continue
		}
		for _, dep := range migration.DependsOn {
			if !done[dep] {
				return ran, fmt.Errorf("migration %s depends on %s which is not applied", migration.ID, dep)
			}
		}

		m.log.Info().Str("migration", migration.ID).Str("name", migration.Name).Msg("Running migration")

		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{ID: migration.ID, Name: migration.Name}).Error
		}); err != nil {
			m.log.Error().Err(err).Str("migration", migration.ID).Msg("Migration failed")
			return ran, fmt.Errorf("migration %s failed: %w", migration.ID, err)
		}

		done[migration.ID] = true
		ran = append(ran, migration.ID)
		m.log.Info().Str("migration", migration.ID).Msg("Migration completed")
	}
	return ran, nil
}

// All returns every registered migration in order.
func All() []Migration {
	return []Migration{
		Migration001LeaderboardIndexes(),
		Migration002SubmissionHistoryIndex(),
		Migration003AutoAssignBadgeIndex(),
	}
}

func execAll(tx *gorm.DB, statements ...string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
