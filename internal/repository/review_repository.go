package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillnexus/reputation-service/internal/models"
)

// ReviewRepository handles review, vote and rating queries.
type ReviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ReviewFilter narrows a listing of received reviews.
type ReviewFilter struct {
	RevieweeID uint
	ReviewType string // empty means any type
	Offset     int
	Limit      int
}

// Create inserts a review. A duplicate (reviewer, target) pair surfaces as
// gorm.ErrDuplicatedKey.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsForTarget reports whether reviewerID already reviewed the given booking or project.
func (r *ReviewRepository) ExistsForTarget(ctx context.Context, reviewerID uint, bookingID, projectID *uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("reviewer_id = ?", reviewerID)
	switch {
	case bookingID != nil:
		query = query.Where("booking_id = ?", *bookingID)
	case projectID != nil:
		query = query.Where("project_id = ?", *projectID)
	default:
		return false, fmt.Errorf("review target is required")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListApprovedForReviewee returns approved reviews received by a user, newest
// first, with the total count before pagination.
func (r *ReviewRepository) ListApprovedForReviewee(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("reviewee_id = ? AND moderation_status = ?", filter.RevieweeID, models.ModerationApproved)
	if filter.ReviewType != "" {
		query = query.Where("review_type = ?", filter.ReviewType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := query.
		Preload("Reviewer").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ApprovedRatings returns the ratings of every approved review received by a user.
func (r *ReviewRepository) ApprovedRatings(ctx context.Context, revieweeID uint) ([]int, error) {
	var ratings []int
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("reviewee_id = ? AND moderation_status = ?", revieweeID, models.ModerationApproved).
		Pluck("rating", &ratings).Error
	return ratings, err
}

// SaveResponse stores the reviewee's public response.
func (r *ReviewRepository) SaveResponse(ctx context.Context, reviewID uint, text string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", reviewID).
		Updates(map[string]interface{}{
			"response_text": text,
			"response_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveModeration persists the moderation fields of a review.
func (r *ReviewRepository) SaveModeration(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Model(review).
		Select("moderation_status", "moderator_id", "moderator_notes", "moderated_at", "updated_at").
		Updates(review).Error
}

// UpsertVote records a vote, replacing the voter's previous vote on the review.
func (r *ReviewRepository) UpsertVote(ctx context.Context, vote *models.ReviewVote) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "voter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
		}).
		Create(vote).Error
}

// RecountHelpfulVotes recomputes helpful_votes from the vote table and returns the new count.
func (r *ReviewRepository) RecountHelpfulVotes(ctx context.Context, reviewID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ReviewVote{}).
			Where("review_id = ? AND vote_type = ?", reviewID, models.VoteHelpful).
			Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Review{}).
			Where("id = ?", reviewID).
			Update("helpful_votes", count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recount helpful votes: %w", err)
	}
	return int(count), nil
}

// ListReceived returns every review received by a user regardless of moderation status.
func (r *ReviewRepository) ListReceived(ctx context.Context, revieweeID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}

// CountGiven counts reviews written by a user.
func (r *ReviewRepository) CountGiven(ctx context.Context, reviewerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("reviewer_id = ?", reviewerID).
		Count(&count).Error
	return count, err
}

// RevieweesWithApprovedReviews lists every user who has at least one approved review.
func (r *ReviewRepository) RevieweesWithApprovedReviews(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("moderation_status = ?", models.ModerationApproved).
		Distinct().
		Order("reviewee_id").
		Pluck("reviewee_id", &ids).Error
	return ids, err
}
