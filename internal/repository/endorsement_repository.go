package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/skillnexus/reputation-service/internal/models"
)

// EndorsementRepository handles skill endorsement persistence.
type EndorsementRepository struct {
	db *DB
}

// NewEndorsementRepository creates a new endorsement repository.
func NewEndorsementRepository(db *DB) *EndorsementRepository {
	return &EndorsementRepository{db: db}
}

// SkillEndorsementCount is the number of public endorsements of one skill.
type SkillEndorsementCount struct {
	SkillID   uint   `json:"skill_id"`
	SkillName string `json:"skill_name"`
	Count     int64  `json:"count"`
}

// Upsert inserts an endorsement or replaces the text and visibility of the
// existing (endorser, endorsee, skill) row.
func (r *EndorsementRepository) Upsert(ctx context.Context, endorsement *models.SkillEndorsement) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "endorser_id"}, {Name: "endorsee_id"}, {Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"endorsement_text", "is_public", "updated_at",
			}),
		}).
		Create(endorsement).Error
}

// ListPublic returns public endorsements received by a user, newest first.
func (r *EndorsementRepository) ListPublic(ctx context.Context, endorseeID uint) ([]models.SkillEndorsement, error) {
	var endorsements []models.SkillEndorsement
	err := r.db.WithContext(ctx).
		Preload("Skill").
		Preload("Endorser").
		Where("endorsee_id = ? AND is_public = ?", endorseeID, true).
		Order("created_at DESC, id DESC").
		Find(&endorsements).Error
	return endorsements, err
}

// CountPublic counts public endorsements received by a user.
func (r *EndorsementRepository) CountPublic(ctx context.Context, endorseeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SkillEndorsement{}).
		Where("endorsee_id = ? AND is_public = ?", endorseeID, true).
		Count(&count).Error
	return count, err
}

// CountBySkill groups a user's public endorsements by skill.
func (r *EndorsementRepository) CountBySkill(ctx context.Context, endorseeID uint) ([]SkillEndorsementCount, error) {
	var counts []SkillEndorsementCount
	err := r.db.WithContext(ctx).
		Table("skill_endorsements AS se").
		Select("se.skill_id AS skill_id, s.name AS skill_name, COUNT(*) AS count").
		Joins("JOIN skills AS s ON s.id = se.skill_id").
		Where("se.endorsee_id = ? AND se.is_public = ?", endorseeID, true).
		Group("se.skill_id, s.name").
		Order("count DESC, s.name ASC").
		Scan(&counts).Error
	return counts, err
}
