// Package reputation serves the public reputation profile of a user.
package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/cache"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// ScoreRepository interface for trust score reads.
type ScoreRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.TrustScore, error)
}

// BadgeRepository interface for badge reads.
type BadgeRepository interface {
	GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error)
}

// EndorsementRepository interface for endorsement counts.
type EndorsementRepository interface {
	CountPublic(ctx context.Context, endorseeID uint) (int64, error)
}

// Profile is a user's reputation at a glance.
type Profile struct {
	TrustScore       models.TrustScore  `json:"trustScore"`
	Badges           []models.UserBadge `json:"badges"`
	EndorsementCount int64              `json:"endorsementCount"`
}

// Service reads reputation profiles through the cache.
type Service struct {
	scoreRepo       ScoreRepository
	badgeRepo       BadgeRepository
	endorsementRepo EndorsementRepository
	cache           cache.Cache
	ttl             time.Duration
	log             *logger.Logger
}

// NewService creates a reputation service. profileCache may be nil, which
// disables caching.
func NewService(
	scoreRepo ScoreRepository,
	badgeRepo BadgeRepository,
	endorsementRepo EndorsementRepository,
	profileCache cache.Cache,
	ttl time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		scoreRepo:       scoreRepo,
		badgeRepo:       badgeRepo,
		endorsementRepo: endorsementRepo,
		cache:           profileCache,
		ttl:             ttl,
		log:             log.Component("reputation"),
	}
}

// GetProfile returns the user's trust score, badges and public endorsement count.
// Users without a trust score have no profile.
func (s *Service) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	if profile := s.cached(ctx, userID); profile != nil {
		return profile, nil
	}

	score, err := s.scoreRepo.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("trust score")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load trust score")
	}

	badges, err := s.badgeRepo.GetUserBadges(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load badges")
	}
	if badges == nil {
		badges = []models.UserBadge{}
	}

	endorsements, err := s.endorsementRepo.CountPublic(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to count endorsements")
	}

	profile := &Profile{TrustScore: *score, Badges: badges, EndorsementCount: endorsements}
	s.store(ctx, userID, profile)
	return profile, nil
}

func (s *Service) cached(ctx context.Context, userID uint) *Profile {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, cache.ProfileKey(userID))
	if errors.Is(err, cache.ErrMiss) {
		prommetrics.RecordProfileCacheLookup("miss")
		return nil
	}
	if err != nil {
		prommetrics.RecordProfileCacheLookup("error")
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Profile cache read failed, using database")
		return nil
	}

	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		prommetrics.RecordProfileCacheLookup("error")
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Discarding malformed cached profile")
		return nil
	}
	prommetrics.RecordProfileCacheLookup("hit")
	return &profile
}

func (s *Service) store(ctx context.Context, userID uint, profile *Profile) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to encode profile for cache")
		return
	}
	if err := s.cache.Set(ctx, cache.ProfileKey(userID), payload, s.ttl); err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to cache profile")
	}
}
