package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/skillnexus/reputation-service/internal/models"
)

// TrustRepository persists the per-user trust score aggregate.
type TrustRepository struct {
	db *DB
}

// NewTrustRepository creates a new trust score repository.
func NewTrustRepository(db *DB) *TrustRepository {
	return &TrustRepository{db: db}
}

// Upsert inserts the score or overwrites every derived field of the existing row.
func (r *TrustRepository) Upsert(ctx context.Context, score *models.TrustScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(score).Error
}

// GetByUserID retrieves the trust score of a user.
func (r *TrustRepository) GetByUserID(ctx context.Context, userID uint) (*models.TrustScore, error) {
	var score models.TrustScore
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&score).Error
	if err != nil {
		return nil, err
	}
	return &score, nil
}
