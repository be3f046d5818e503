// Package badges awards threshold badges from a trust score snapshot.
package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// BadgeRepository interface for badge operations.
type BadgeRepository interface {
	AwardBadge(ctx context.Context, badge *models.UserBadge) (bool, error)
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
	CountHolders(ctx context.Context, badgeName string) (int64, error)
}

// Service handles badge evaluation and awarding.
type Service struct {
	badgeRepo BadgeRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a new badge service.
func NewService(badgeRepo *repository.BadgeRepository, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(badgeRepo, log)
}

// NewServiceWithInterfaces creates a new badge service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(badgeRepo BadgeRepository, log *logger.Logger) *Service {
	return &Service{
		badgeRepo: badgeRepo,
		log:       log.Component("badges"),
		now:       time.Now,
	}
}

// Evaluate awards every badge the user qualifies for and does not hold yet.
// It returns the newly awarded badges. A failing rule does not stop the others;
// their errors are joined.
func (s *Service) Evaluate(ctx context.Context, userID uint, stats Stats) ([]models.UserBadge, error) {
	var (
		awarded []models.UserBadge
		errs    []error
	)

	for _, rule := range Rules {
		qualifies, err := rule.Qualifies(stats)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !qualifies {
			continue
		}

		badge := models.UserBadge{
			UserID:           userID,
			BadgeType:        rule.Tier,
			BadgeName:        rule.Name,
			BadgeDescription: rule.Description,
			EarnedAt:         s.now(),
		}
		created, err := s.badgeRepo.AwardBadge(ctx, &badge)
		if err != nil {
			s.log.Error().
				Err(err).
				Uint("user_id", userID).
				Str("badge", rule.Name).
				Msg("Failed to award badge")
			errs = append(errs, fmt.Errorf("failed to award %s: %w", rule.Name, err))
			continue
		}
		if !created {
			continue
		}

		awarded = append(awarded, badge)
		s.recordAward(ctx, rule)
		s.log.Info().
			Uint("user_id", userID).
			Str("badge", rule.Name).
			Str("tier", rule.Tier).
			Msg("Badge awarded")
	}

	return awarded, errors.Join(errs...)
}

// recordAward updates badge metrics.
func (s *Service) recordAward(ctx context.Context, rule Rule) {
	prommetrics.RecordBadgeAwarded(rule.Name, rule.Tier)

	count, err := s.badgeRepo.CountHolders(ctx, rule.Name)
	if err != nil {
		s.log.Warn().Err(err).Str("badge", rule.Name).Msg("Failed to count badge holders")
		return
	}
	prommetrics.SetActiveBadgeHolders(rule.Name, int(count))
}

// GetUserBadges retrieves all badges earned by a user.
func (s *Service) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	return s.badgeRepo.GetUserBadges(ctx, userID)
}

// GetBadgeCatalog returns every badge that can be earned.
func (s *Service) GetBadgeCatalog() []Rule {
	catalog := make([]Rule, len(Rules))
	copy(catalog, Rules)
	return catalog
}
