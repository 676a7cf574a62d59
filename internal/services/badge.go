package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pushp314/logiquest-backend/internal/database"
	"github.com/pushp314/logiquest-backend/internal/models"
	apperrors "github.com/pushp314/logiquest-backend/pkg/errors"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	BadgePuzzleMaster        = "Puzzle Master"
	BadgeGrandChampion       = "Grand Champion"
	BadgeBlockchainExpert    = "Blockchain Expert"
	BadgeAlgorithmSpecialist = "Algorithm Specialist"
	BadgeRisingStar          = "Rising Star"
)

// BadgeTitleForRank maps a 1-based leaderboard position to its badge title.
func BadgeTitleForRank(position int) string {
	switch {
	case position == 1:
		return BadgePuzzleMaster
	case position == 2:
		return BadgeGrandChampion
	case position == 3:
		return BadgeBlockchainExpert
	case position >= 4 && position <= 10:
		return BadgeAlgorithmSpecialist
	case position > 10:
		return BadgeRisingStar
	}
	return ""
}

type AssignmentSummary struct {
	Evaluated int `json:"evaluated"`
	Assigned  int `json:"assigned"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

type CreateBadgeInput struct {
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	IconURL        string `json:"iconUrl"`
	Rank           int    `json:"rank" binding:"required,min=1"`
	IsActive       *bool  `json:"isActive"`
	IsAutoAssigned bool   `json:"isAutoAssigned"`
}

type UpdateBadgeInput struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	IconURL        *string `json:"iconUrl"`
	Rank           *int    `json:"rank" binding:"omitempty,min=1"`
	IsActive       *bool   `json:"isActive"`
	IsAutoAssigned *bool   `json:"isAutoAssigned"`
}

type BadgeService struct {
	db    *gorm.DB
	cache Cache
	log   zerolog.Logger
}

func NewBadgeService(db *gorm.DB, cache Cache, log zerolog.Logger) *BadgeService {
	if cache == nil {
		cache = database.NopCache{}
	}
	return &BadgeService{db: db, cache: cache, log: log}
}

// AutoAssign walks the full leaderboard in score order and points each entry
// at the badge for its position. Entries already holding the right badge are
// not written. A failed write aborts the pass; rerunning it is safe.
func (s *BadgeService) AutoAssign(ctx context.Context) (*AssignmentSummary, error) {
	s.log.Info().Msg("Starting automatic badge assignment")

	db := s.db.WithContext(ctx)

	var entries []models.LeaderboardEntry
	if err := db.Order("score DESC").Order("id ASC").Find(&entries).Error; err != nil {
		s.log.Error().Err(err).Msg("Failed to load leaderboard snapshot")
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}

	var eligible []models.Badge
	if err := db.Where("is_active = ? AND is_auto_assigned = ?", true, true).
		Order("rank ASC").
		Find(&eligible).Error; err != nil {
		s.log.Error().Err(err).Msg("Failed to load auto-assignable badges")
		return nil, fmt.Errorf("load badges: %w", err)
	}

	byTitle := make(map[string]models.Badge, len(eligible))
	for _, b := range eligible {
		byTitle[b.Title] = b
	}

	summary := &AssignmentSummary{Evaluated: len(entries)}
	for i, entry := range entries {
		position := i + 1
		badge, ok := byTitle[BadgeTitleForRank(position)]
		if !ok {
			summary.Skipped++
			continue
		}
		if entry.BadgeID != nil && *entry.BadgeID == badge.ID {
			summary.Unchanged++
			continue
		}

		// UpdateColumn leaves updated_at alone; it tracks score activity.
		if err := db.Model(&models.LeaderboardEntry{}).
			Where("id = ?", entry.ID).
			UpdateColumn("badge_id", badge.ID).Error; err != nil {
			s.log.Error().Err(err).
				Str("entry_id", entry.ID).
				Int("rank", position).
				Msg("Error during automatic badge assignment")
			return nil, fmt.Errorf("assign %q to entry %s: %w", badge.Title, entry.ID, err)
		}
		summary.Assigned++
		s.log.Debug().Str("badge", badge.Title).Int("rank", position).Msg("Assigned badge")
	}

	if err := s.cache.Invalidate(ctx, leaderboardCacheKey+"*"); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate leaderboard cache")
	}

	s.log.Info().
		Int("evaluated", summary.Evaluated).
		Int("assigned", summary.Assigned).
		Int("unchanged", summary.Unchanged).
		Int("skipped", summary.Skipped).
		Msg("Automatic badge assignment completed")
	return summary, nil
}

func (s *BadgeService) List(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := s.db.WithContext(ctx).Order("rank ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeService) ListActive(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("rank ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list active badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeService) Get(ctx context.Context, id string) (*models.Badge, error) {
	var badge models.Badge
	if err := s.db.WithContext(ctx).First(&badge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadgeNotFound
		}
		return nil, fmt.Errorf("load badge %s: %w", id, err)
	}
	return &badge, nil
}

func (s *BadgeService) Create(ctx context.Context, input CreateBadgeInput) (*models.Badge, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("Badge title is required")
	}
	if err := s.checkConflicts(ctx, "", title, input.Rank); err != nil {
		return nil, err
	}

	badge := models.Badge{
		ID:             utils.GenerateID(),
		Title:          title,
		Description:    input.Description,
		IconURL:        input.IconURL,
		Rank:           input.Rank,
		IsActive:       input.IsActive == nil || *input.IsActive,
		IsAutoAssigned: input.IsAutoAssigned,
	}
	if badge.IconURL == "" {
		badge.IconURL = defaultIconURL(title)
	}
	if err := s.db.WithContext(ctx).Create(&badge).Error; err != nil {
		return nil, fmt.Errorf("create badge: %w", err)
	}
	s.log.Info().Str("badge", badge.Title).Int("rank", badge.Rank).Msg("Badge created")
	return &badge, nil
}

func (s *BadgeService) Update(ctx context.Context, id string, input UpdateBadgeInput) (*models.Badge, error) {
	badge, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title, rank := badge.Title, badge.Rank
	if input.Title != nil {
		title = strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.BadRequest("Badge title cannot be empty")
		}
	}
	if input.Rank != nil {
		rank = *input.Rank
	}
	if err := s.checkConflicts(ctx, badge.ID, title, rank); err != nil {
		return nil, err
	}

	badge.Title, badge.Rank = title, rank
	if input.Description != nil {
		badge.Description = *input.Description
	}
	if input.IconURL != nil {
		badge.IconURL = *input.IconURL
	}
	if input.IsActive != nil {
		badge.IsActive = *input.IsActive
	}
	if input.IsAutoAssigned != nil {
		badge.IsAutoAssigned = *input.IsAutoAssigned
	}

	if err := s.db.WithContext(ctx).Save(badge).Error; err != nil {
		return nil, fmt.Errorf("update badge: %w", err)
	}
	return badge, nil
}

// Delete refuses to remove a badge that leaderboard entries still reference.
func (s *BadgeService) Delete(ctx context.Context, id string) error {
	badge, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var assigned int64
	if err := s.db.WithContext(ctx).Model(&models.LeaderboardEntry{}).
		Where("badge_id = ?", badge.ID).
		Count(&assigned).Error; err != nil {
		return fmt.Errorf("count badge holders: %w", err)
	}
	if assigned > 0 {
		return apperrors.Conflict(fmt.Sprintf("Cannot delete badge %q as it is assigned to %d leaderboard entries", badge.Title, assigned))
	}

	if err := s.db.WithContext(ctx).Delete(badge).Error; err != nil {
		return fmt.Errorf("delete badge: %w", err)
	}
	s.log.Info().Str("badge", badge.Title).Msg("Badge deleted")
	return nil
}

func (s *BadgeService) checkConflicts(ctx context.Context, selfID, title string, rank int) error {
	db := s.db.WithContext(ctx)

	var count int64
	q := db.Model(&models.Badge{}).Where("title = ?", title)
	if selfID != "" {
		q = q.Where("id <> ?", selfID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check badge title: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Sprintf("Badge with title %q already exists", title))
	}

	q = db.Model(&models.Badge{}).Where("rank = ?", rank)
	if selfID != "" {
		q = q.Where("id <> ?", selfID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check badge rank: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Sprintf("Badge with rank %d already exists", rank))
	}
	return nil
}

var defaultBadges = []CreateBadgeInput{
	{Title: BadgePuzzleMaster, Description: "Top of the leaderboard", Rank: 1, IsAutoAssigned: true},
	{Title: BadgeGrandChampion, Description: "Second place on the leaderboard", Rank: 2, IsAutoAssigned: true},
	{Title: BadgeBlockchainExpert, Description: "Third place on the leaderboard", Rank: 3, IsAutoAssigned: true},
	{Title: BadgeAlgorithmSpecialist, Description: "Ranked in the top ten", Rank: 4, IsAutoAssigned: true},
	{Title: BadgeRisingStar, Description: "On the board and climbing", Rank: 5, IsAutoAssigned: true},
}

// SeedDefaults creates the rank badges that are missing by title. Existing
// badges are left untouched.
func (s *BadgeService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, input := range defaultBadges {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Badge{}).Where("title = ?", input.Title).Count(&count).Error; err != nil {
			return created, fmt.Errorf("check badge %q: %w", input.Title, err)
		}
		if count > 0 {
			continue
		}
		if _, err := s.Create(ctx, input); err != nil {
			return created, err
		}
		created++
	}
	s.log.Info().Int("created", created).Msg("Default badges seeded")
	return created, nil
}

func defaultIconURL(title string) string {
	return "/badges/" + utils.GenerateSlug(title) + ".png"
}
