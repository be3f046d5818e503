package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillnexus/reputation-service/internal/models"
)

// BadgeRepository handles user badge persistence.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// HasUserEarnedBadge checks if a user already holds the named badge.
func (r *BadgeRepository) HasUserEarnedBadge(ctx context.Context, userID uint, badgeName string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_name = ?", userID, badgeName).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AwardBadge inserts the badge unless the user already holds one with the same
// name. It reports whether a new row was written.
func (r *BadgeRepository) AwardBadge(ctx context.Context, badge *models.UserBadge) (bool, error) {
	exists, err := r.HasUserEarnedBadge(ctx, badge.UserID, badge.BadgeName)
	if err != nil {
		return false, err
	}
	if exists {
		// Idempotent: already awarded
		return false, nil
	}

	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(badge).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent award; the unique index kept one row.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUserBadges retrieves all badges earned by a user, oldest first.
func (r *BadgeRepository) GetUserBadges(ctx context.Context, userID uint) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at ASC, id ASC").
		Find(&badges).Error
	return badges, err
}

// CountHolders counts users who hold the named badge.
func (r *BadgeRepository) CountHolders(ctx context.Context, badgeName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserBadge{}).
		Where("badge_name = ?", badgeName).
		Count(&count).Error
	return count, err
}
