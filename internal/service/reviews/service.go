// Package reviews handles review intake, listing, responses and helpfulness votes.
package reviews

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/pagination"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/service/trust"
	"github.com/skillnexus/reputation-service/internal/validation"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// ReviewRepository interface for review operations.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	ExistsForTarget(ctx context.Context, reviewerID uint, bookingID, projectID *uint) (bool, error)
	ListApprovedForReviewee(ctx context.Context, filter repository.ReviewFilter) ([]models.Review, int64, error)
	SaveResponse(ctx context.Context, reviewID uint, text string, at time.Time) error
	UpsertVote(ctx context.Context, vote *models.ReviewVote) error
	RecountHelpfulVotes(ctx context.Context, reviewID uint) (int, error)
}

// BookingRepository interface for the booking and project reads intake needs.
type BookingRepository interface {
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	GetProject(ctx context.Context, id uint) (*models.Project, error)
	IsProjectParticipant(ctx context.Context, projectID, userID uint) (bool, error)
}

// Recalculator recomputes a user's trust score.
type Recalculator interface {
	Recalculate(ctx context.Context, userID uint) (*trust.Result, error)
}

// SubmitInput is a new review.
type SubmitInput struct {
	ReviewerID  uint   `json:"-" validate:"required"`
	BookingID   *uint  `json:"booking_id"`
	ProjectID   *uint  `json:"project_id"`
	Rating      int    `json:"rating" validate:"min=1,max=5"`
	ReviewText  string `json:"review_text" validate:"max=1000"`
	ReviewType  string `json:"review_type" validate:"required,oneof=skill_session project_participation"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type respondInput struct {
	ResponseText string `json:"response_text" validate:"required,min=1,max=1000"`
}

type voteInput struct {
	VoteType string `json:"vote_type" validate:"required,oneof=helpful not_helpful"`
}

// ListInput selects a page of a user's received reviews.
type ListInput struct {
	RevieweeID uint
	ReviewType string
	Page       int
	Limit      int
}

// ReviewView is a review as shown publicly. Anonymous reviews carry no reviewer identity.
type ReviewView struct {
	ID               uint       `json:"id"`
	ReviewerID       *uint      `json:"reviewer_id,omitempty"`
	ReviewerUsername string     `json:"reviewer_username,omitempty"`
	RevieweeID       uint       `json:"reviewee_id"`
	BookingID        *uint      `json:"booking_id,omitempty"`
	ProjectID        *uint      `json:"project_id,omitempty"`
	Rating           int        `json:"rating"`
	ReviewText       string     `json:"review_text,omitempty"`
	ReviewType       string     `json:"review_type"`
	IsAnonymous      bool       `json:"is_anonymous"`
	ResponseText     string     `json:"response_text,omitempty"`
	ResponseAt       *time.Time `json:"response_at,omitempty"`
	HelpfulVotes     int        `json:"helpful_votes"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Page is one page of received reviews.
type Page struct {
	Reviews    []ReviewView    `json:"reviews"`
	Pagination pagination.Meta `json:"pagination"`
}

// Service implements review intake and feedback.
type Service struct {
	reviewRepo    ReviewRepository
	bookingRepo   BookingRepository
	recalculator  Recalculator
	validator     *validation.Validator
	defaultStatus string
	log           *logger.Logger
	now           func() time.Time
}

// NewService creates a review service. New reviews are stored with defaultStatus.
func NewService(
	reviewRepo ReviewRepository,
	bookingRepo BookingRepository,
	recalculator Recalculator,
	defaultStatus string,
	log *logger.Logger,
) *Service {
	if defaultStatus == "" {
		defaultStatus = models.ModerationApproved
	}
	return &Service{
		reviewRepo:    reviewRepo,
		bookingRepo:   bookingRepo,
		recalculator:  recalculator,
		validator:     validation.New(),
		defaultStatus: defaultStatus,
		log:           log.Component("reviews"),
		now:           time.Now,
	}
}

// Submit validates and stores a review, then refreshes the reviewee's trust
// score. Trust score failures never fail the submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Review, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if (in.BookingID == nil) == (in.ProjectID == nil) {
		return nil, apperrors.Validation("exactly one of booking_id and project_id is required")
	}

	var (
		revieweeID uint
		err        error
	)
	if in.BookingID != nil {
		if in.ReviewType != models.ReviewTypeSkillSession {
			return nil, apperrors.Validation("booking reviews must have review_type %q", models.ReviewTypeSkillSession)
		}
		revieweeID, err = s.resolveBookingReviewee(ctx, in.ReviewerID, *in.BookingID)
	} else {
		if in.ReviewType != models.ReviewTypeProjectParticipation {
			return nil, apperrors.Validation("project reviews must have review_type %q", models.ReviewTypeProjectParticipation)
		}
		revieweeID, err = s.resolveProjectReviewee(ctx, in.ReviewerID, *in.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsForTarget(ctx, in.ReviewerID, in.BookingID, in.ProjectID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check for an existing review")
	}
	if exists {
		return nil, apperrors.Conflict("you have already reviewed this %s", targetName(in))
	}

	review := &models.Review{
		ReviewerID:       in.ReviewerID,
		RevieweeID:       revieweeID,
		BookingID:        in.BookingID,
		ProjectID:        in.ProjectID,
		Rating:           in.Rating,
		ReviewText:       in.ReviewText,
		ReviewType:       in.ReviewType,
		IsAnonymous:      in.IsAnonymous,
		ModerationStatus: s.defaultStatus,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("you have already reviewed this %s", targetName(in))
		}
		return nil, apperrors.Internal(err, "failed to save review")
	}

	prommetrics.RecordReviewSubmitted(review.ReviewType, review.ModerationStatus)
	s.log.Info().
		Uint("review_id", review.ID).
		Uint("reviewer_id", review.ReviewerID).
		Uint("reviewee_id", review.RevieweeID).
		Int("rating", review.Rating).
		Str("moderation_status", review.ModerationStatus).
		Msg("Review submitted")

	s.refreshTrustScore(ctx, revieweeID)
	return review, nil
}

func (s *Service) resolveBookingReviewee(ctx context.Context, reviewerID, bookingID uint) (uint, error) {
	booking, err := s.bookingRepo.GetBooking(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.NotFound("booking")
	}
	if err != nil {
		return 0, apperrors.Internal(err, "failed to load booking")
	}
	if !booking.IsParticipant(reviewerID) {
		return 0, apperrors.Forbidden("you did not take part in this booking")
	}
	if booking.Status != models.BookingStatusCompleted {
		return 0, apperrors.InvalidState("booking must be completed before it can be reviewed (status %q)", booking.Status)
	}
	return booking.Counterpart(reviewerID), nil
}

func (s *Service) resolveProjectReviewee(ctx context.Context, reviewerID, projectID uint) (uint, error) {
	project, err := s.bookingRepo.GetProject(ctx, projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.NotFound("project")
	}
	if err != nil {
		return 0, apperrors.Internal(err, "failed to load project")
	}

	member, err := s.bookingRepo.IsProjectParticipant(ctx, projectID, reviewerID)
	if err != nil {
		return 0, apperrors.Internal(err, "failed to check project membership")
	}
	if !member {
		return 0, apperrors.Forbidden("you are not a participant of this project")
	}
	if project.CreatorID == reviewerID {
		return 0, apperrors.Validation("you cannot review your own project")
	}
	return project.CreatorID, nil
}

// refreshTrustScore runs the calculator and discards its error after logging:
// the review is already stored and must not be reported as failed.
func (s *Service) refreshTrustScore(ctx context.Context, userID uint) {
	if s.recalculator == nil {
		return
	}
	if _, err := s.recalculator.Recalculate(ctx, userID); err != nil {
		s.log.Ctx(ctx).Error().Err(err).Uint("user_id", userID).Msg("Failed to recalculate trust score")
	}
}

// ListForUser returns approved reviews received by a user, newest first.
func (s *Service) ListForUser(ctx context.Context, in ListInput) (*Page, error) {
	if in.ReviewType != "" &&
		in.ReviewType != models.ReviewTypeSkillSession &&
		in.ReviewType != models.ReviewTypeProjectParticipation {
		return nil, apperrors.Validation("unknown review type %q", in.ReviewType)
	}

	params := pagination.New(in.Page, in.Limit)
	reviews, total, err := s.reviewRepo.ListApprovedForReviewee(ctx, repository.ReviewFilter{
		RevieweeID: in.RevieweeID,
		ReviewType: in.ReviewType,
		Offset:     params.Offset(),
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list reviews")
	}

	views := make([]ReviewView, 0, len(reviews))
	for i := range reviews {
		views = append(views, NewReviewView(&reviews[i]))
	}
	return &Page{Reviews: views, Pagination: params.Meta(total)}, nil
}

// NewReviewView converts a review for public display.
func NewReviewView(r *models.Review) ReviewView {
	view := ReviewView{
		ID:           r.ID,
		RevieweeID:   r.RevieweeID,
		BookingID:    r.BookingID,
		ProjectID:    r.ProjectID,
		Rating:       r.Rating,
		ReviewText:   r.ReviewText,
		ReviewType:   r.ReviewType,
		IsAnonymous:  r.IsAnonymous,
		ResponseText: r.ResponseText,
		ResponseAt:   r.ResponseAt,
		HelpfulVotes: r.HelpfulVotes,
		CreatedAt:    r.CreatedAt,
	}
	if !r.IsAnonymous {
		reviewerID := r.ReviewerID
		view.ReviewerID = &reviewerID
		view.ReviewerUsername = r.Reviewer.Username
	}
	return view
}

// Respond stores the reviewee's public response to a review.
func (s *Service) Respond(ctx context.Context, reviewID, userID uint, text string) error {
	if err := s.validator.Validate(respondInput{ResponseText: text}); err != nil {
		return err
	}

	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.RevieweeID != userID {
		return apperrors.Forbidden("only the reviewed user can respond to this review")
	}

	if err := s.reviewRepo.SaveResponse(ctx, reviewID, text, s.now()); err != nil {
		return apperrors.Internal(err, "failed to save response")
	}
	s.log.Info().Uint("review_id", reviewID).Uint("user_id", userID).Msg("Review response saved")
	return nil
}

// Vote records the voter's helpfulness vote and returns the review's new helpful count.
func (s *Service) Vote(ctx context.Context, reviewID, voterID uint, voteType string) (int, error) {
	if err := s.validator.Validate(voteInput{VoteType: voteType}); err != nil {
		return 0, err
	}

	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return 0, err
	}
	if review.ReviewerID == voterID {
		return 0, apperrors.Validation("you cannot vote on your own review")
	}

	vote := &models.ReviewVote{ReviewID: reviewID, VoterID: voterID, VoteType: voteType}
	if err := s.reviewRepo.UpsertVote(ctx, vote); err != nil {
		return 0, apperrors.Internal(err, "failed to save vote")
	}
	helpful, err := s.reviewRepo.RecountHelpfulVotes(ctx, reviewID)
	if err != nil {
		return 0, apperrors.Internal(err, "failed to update vote count")
	}

	prommetrics.RecordReviewVote(voteType)
	return helpful, nil
}

func (s *Service) getReview(ctx context.Context, id uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("review")
	}
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load review")
	}
	return review, nil
}

func targetName(in SubmitInput) string {
	if in.BookingID != nil {
		return "booking"
	}
	return "project"
}
