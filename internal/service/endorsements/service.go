// Package endorsements records users vouching for each other's skills.
package endorsements

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/cache"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/validation"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// EndorsementRepository interface for endorsement persistence.
type EndorsementRepository interface {
	Upsert(ctx context.Context, endorsement *models.SkillEndorsement) error
	ListPublic(ctx context.Context, endorseeID uint) ([]models.SkillEndorsement, error)
	CountBySkill(ctx context.Context, endorseeID uint) ([]repository.SkillEndorsementCount, error)
}

// UserRepository interface for user and skill lookups.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetSkill(ctx context.Context, id uint) (*models.Skill, error)
}

// EndorseInput is an endorsement request.
type EndorseInput struct {
	EndorserID      uint   `json:"-" validate:"required"`
	EndorseeID      uint   `json:"-" validate:"required"`
	SkillID         uint   `json:"skill_id" validate:"required"`
	EndorsementText string `json:"endorsement_text" validate:"max=500"`
	IsPublic        *bool  `json:"is_public"`
}

// EndorsementView is a public endorsement.
type EndorsementView struct {
	ID               uint      `json:"id"`
	EndorserID       uint      `json:"endorser_id"`
	EndorserUsername string    `json:"endorser_username"`
	SkillID          uint      `json:"skill_id"`
	SkillName        string    `json:"skill_name"`
	EndorsementText  string    `json:"endorsement_text,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Listing is a user's public endorsements with per-skill totals.
type Listing struct {
	Endorsements []EndorsementView                  `json:"endorsements"`
	SkillCounts  []repository.SkillEndorsementCount `json:"skill_counts"`
}

// Service implements skill endorsements.
type Service struct {
	endorsementRepo EndorsementRepository
	userRepo        UserRepository
	cache           cache.Cache
	validator       *validation.Validator
	log             *logger.Logger
}

// NewService creates an endorsement service. profileCache may be nil.
func NewService(
	endorsementRepo EndorsementRepository,
	userRepo UserRepository,
	profileCache cache.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		endorsementRepo: endorsementRepo,
		userRepo:        userRepo,
		cache:           profileCache,
		validator:       validation.New(),
		log:             log.Component("endorsements"),
	}
}

// Endorse creates or replaces the endorser's endorsement of one of the endorsee's skills.
func (s *Service) Endorse(ctx context.Context, in EndorseInput) (*models.SkillEndorsement, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if in.EndorserID == in.EndorseeID {
		return nil, apperrors.Validation("you cannot endorse yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, in.EndorseeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Internal(err, "failed to load user")
	}

	skill, err := s.userRepo.GetSkill(ctx, in.SkillID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && skill.UserID != in.EndorseeID) {
		return nil, apperrors.NotFound("skill")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load skill")
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}
	endorsement := &models.SkillEndorsement{
		EndorserID:      in.EndorserID,
		EndorseeID:      in.EndorseeID,
		SkillID:         in.SkillID,
		EndorsementText: in.EndorsementText,
		IsPublic:        isPublic,
	}
	if err := s.endorsementRepo.Upsert(ctx, endorsement); err != nil {
		return nil, apperrors.Internal(err, "failed to save endorsement")
	}

	prommetrics.RecordEndorsement()
	s.log.Info().
		Uint("endorser_id", in.EndorserID).
		Uint("endorsee_id", in.EndorseeID).
		Uint("skill_id", in.SkillID).
		Bool("is_public", isPublic).
		Msg("Skill endorsed")

	if s.cache != nil {
		if err := s.cache.Del(ctx, cache.ProfileKey(in.EndorseeID)); err != nil {
			s.log.Ctx(ctx).Warn().Err(err).Uint("user_id", in.EndorseeID).Msg("Failed to invalidate reputation profile")
		}
	}
	return endorsement, nil
}

// List returns the user's public endorsements, newest first.
func (s *Service) List(ctx context.Context, endorseeID uint) (*Listing, error) {
	endorsements, err := s.endorsementRepo.ListPublic(ctx, endorseeID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list endorsements")
	}
	counts, err := s.endorsementRepo.CountBySkill(ctx, endorseeID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to count endorsements")
	}

	views := make([]EndorsementView, 0, len(endorsements))
	for _, e := range endorsements {
		views = append(views, EndorsementView{
			ID:               e.ID,
			EndorserID:       e.EndorserID,
			EndorserUsername: e.Endorser.Username,
			SkillID:          e.SkillID,
			SkillName:        e.Skill.Name,
			EndorsementText:  e.EndorsementText,
			CreatedAt:        e.CreatedAt,
		})
	}
	if counts == nil {
		counts = []repository.SkillEndorsementCount{}
	}
	return &Listing{Endorsements: views, SkillCounts: counts}, nil
}
