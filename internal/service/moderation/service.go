// Package moderation runs reviews and review reports through their approval states.
package moderation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/config"
	"github.com/skillnexus/reputation-service/internal/mattermost"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/pagination"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/service/trust"
	"github.com/skillnexus/reputation-service/internal/validation"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// ReviewRepository interface for review moderation.
type ReviewRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	SaveModeration(ctx context.Context, review *models.Review) error
}

// ReportRepository interface for review reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.ReviewReport) error
	GetByID(ctx context.Context, id uint) (*models.ReviewReport, error)
	HasPendingReport(ctx context.Context, reviewID, reporterID uint) (bool, error)
	List(ctx context.Context, filter repository.ReportFilter) ([]models.ReviewReport, int64, error)
	SaveTriage(ctx context.Context, report *models.ReviewReport) error
}

// Recalculator recomputes a user's trust score.
type Recalculator interface {
	Recalculate(ctx context.Context, userID uint) (*trust.Result, error)
}

// Notifier alerts moderators about new reports.
type Notifier interface {
	SendReportAlert(ctx context.Context, alert mattermost.ReportAlert) error
}

// Actor is the authenticated caller.
type Actor struct {
	UserID uint
	Role   string
}

// Policy holds the configurable moderation rules.
type Policy struct {
	RequireModeratorRole    bool
	ModeratorRoles          []string
	RecalculateOnModeration bool
}

// PolicyFromConfig builds the policy from configuration.
func PolicyFromConfig(rep *config.ReputationConfig, mod *config.ModerationConfig) Policy {
	return Policy{
		RequireModeratorRole:    mod.RequireModeratorRole,
		ModeratorRoles:          mod.ModeratorRoles,
		RecalculateOnModeration: rep.RecalculateOnModeration,
	}
}

type moderateInput struct {
	Status string `json:"moderation_status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"moderator_notes" validate:"max=1000"`
}

// ReportInput is a new report against a review.
type ReportInput struct {
	ReviewID   uint   `json:"-" validate:"required"`
	ReporterID uint   `json:"-" validate:"required"`
	Reason     string `json:"report_reason" validate:"required,max=100"`
	Details    string `json:"report_details" validate:"max=1000"`
}

type triageInput struct {
	Status string `json:"status" validate:"required,oneof=investigated resolved"`
	Notes  string `json:"resolution_notes" validate:"max=1000"`
}

// ReportPage is one page of reports.
type ReportPage struct {
	Reports    []models.ReviewReport `json:"reports"`
	Pagination pagination.Meta       `json:"pagination"`
}

// Service implements the moderation gate.
type Service struct {
	reviewRepo   ReviewRepository
	reportRepo   ReportRepository
	recalculator Recalculator
	notifier     Notifier
	policy       Policy
	validator    *validation.Validator
	log          *logger.Logger
	now          func() time.Time
}

// NewService creates a moderation service. notifier may be nil.
func NewService(
	reviewRepo ReviewRepository,
	reportRepo ReportRepository,
	recalculator Recalculator,
	notifier Notifier,
	policy Policy,
	log *logger.Logger,
) *Service {
	return &Service{
		reviewRepo:   reviewRepo,
		reportRepo:   reportRepo,
		recalculator: recalculator,
		notifier:     notifier,
		policy:       policy,
		validator:    validation.New(),
		log:          log.Component("moderation"),
		now:          time.Now,
	}
}

// authorize enforces the moderator role when the policy requires it.
func (s *Service) authorize(actor Actor) error {
	if !s.policy.RequireModeratorRole {
		return nil
	}
	for _, role := range s.policy.ModeratorRoles {
		if role == actor.Role {
			return nil
		}
	}
	return apperrors.Forbidden("moderator role required")
}

// Moderate sets a review's moderation status.
func (s *Service) Moderate(ctx context.Context, actor Actor, reviewID uint, status, notes string) (*models.Review, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(moderateInput{Status: status, Notes: notes}); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("review")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load review")
	}

	now := s.now()
	moderatorID := actor.UserID
	previous := review.ModerationStatus
	review.ModerationStatus = status
	review.ModeratorID = &moderatorID
	review.ModeratorNotes = notes
	review.ModeratedAt = &now
	if err := s.reviewRepo.SaveModeration(ctx, review); err != nil {
		return nil, apperrors.Internal(err, "failed to save moderation decision")
	}

	prommetrics.RecordModerationAction(status)
	s.log.Info().
		Uint("review_id", reviewID).
		Uint("moderator_id", actor.UserID).
		Str("from", previous).
		Str("to", status).
		Msg("Review moderated")

	if s.policy.RecalculateOnModeration && previous != status && s.recalculator != nil {
		if _, err := s.recalculator.Recalculate(ctx, review.RevieweeID); err != nil {
			s.log.Ctx(ctx).Error().Err(err).Uint("user_id", review.RevieweeID).Msg("Failed to recalculate trust score after moderation")
		}
	}

	return review, nil
}

// Report files a report against a review and alerts moderators.
func (s *Service) Report(ctx context.Context, in ReportInput) (*models.ReviewReport, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("review")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load review")
	}

	pending, err := s.reportRepo.HasPendingReport(ctx, in.ReviewID, in.ReporterID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check existing reports")
	}
	if pending {
		return nil, apperrors.Conflict("you already have a pending report for this review")
	}

	report := &models.ReviewReport{
		ReviewID:   in.ReviewID,
		ReporterID: in.ReporterID,
		Reason:     in.Reason,
		Details:    in.Details,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, apperrors.Internal(err, "failed to save report")
	}

	prommetrics.RecordReviewReport(models.ReportStatusPending)
	s.log.Info().
		Uint("report_id", report.ID).
		Uint("review_id", in.ReviewID).
		Uint("reporter_id", in.ReporterID).
		Str("reason", in.Reason).
		Msg("Review reported")

	s.alert(ctx, report, review)
	return report, nil
}

// alert notifies moderators; delivery failures are logged and dropped.
func (s *Service) alert(ctx context.Context, report *models.ReviewReport, review *models.Review) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendReportAlert(ctx, mattermost.ReportAlert{
		ReportID:   report.ID,
		ReviewID:   review.ID,
		ReporterID: report.ReporterID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
		Reason:     report.Reason,
		Details:    report.Details,
	})
	if err != nil {
		s.log.Ctx(ctx).Warn().Err(err).Uint("report_id", report.ID).Msg("Failed to send report alert")
	}
}

// ListReports returns reports, optionally filtered by status, newest first.
func (s *Service) ListReports(ctx context.Context, actor Actor, status string, page, limit int) (*ReportPage, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	switch status {
	case "", models.ReportStatusPending, models.ReportStatusInvestigated, models.ReportStatusResolved:
	default:
		return nil, apperrors.Validation("unknown report status %q", status)
	}

	params := pagination.New(page, limit)
	reports, total, err := s.reportRepo.List(ctx, repository.ReportFilter{
		Status: status,
		Offset: params.Offset(),
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list reports")
	}
	return &ReportPage{Reports: reports, Pagination: params.Meta(total)}, nil
}

// UpdateReport moves a report forward in its lifecycle.
func (s *Service) UpdateReport(ctx context.Context, actor Actor, reportID uint, status, notes string) (*models.ReviewReport, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(triageInput{Status: status, Notes: notes}); err != nil {
		return nil, err
	}

	report, err := s.reportRepo.GetByID(ctx, reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("report")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load report")
	}
	if !report.CanTransitionTo(status) {
		return nil, apperrors.InvalidState("report cannot move from %s to %s", report.Status, status)
	}

	moderatorID := actor.UserID
	report.Status = status
	report.ModeratorID = &moderatorID
	report.ResolutionNotes = notes
	if status == models.ReportStatusResolved {
		now := s.now()
		report.ResolvedAt = &now
	}
	if err := s.reportRepo.SaveTriage(ctx, report); err != nil {
		return nil, apperrors.Internal(err, "failed to save report")
	}

	prommetrics.RecordReviewReport(status)
	s.log.Info().
		Uint("report_id", reportID).
		Uint("moderator_id", actor.UserID).
		Str("status", status).
		Msg("Report updated")
	return report, nil
}
