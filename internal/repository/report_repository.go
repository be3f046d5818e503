package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/skillnexus/reputation-service/internal/models"
)

// ReportRepository handles review report persistence.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ReportFilter narrows a report listing.
type ReportFilter struct {
	Status string // empty means any status
	Offset int
	Limit  int
}

// Create inserts a report.
func (r *ReportRepository) Create(ctx context.Context, report *models.ReviewReport) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

// GetByID retrieves a report by its ID.
func (r *ReportRepository) GetByID(ctx context.Context, id uint) (*models.ReviewReport, error) {
	var report models.ReviewReport
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// HasPendingReport reports whether reporterID already has an open report on the review.
func (r *ReportRepository) HasPendingReport(ctx context.Context, reviewID, reporterID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewReport{}).
		Where("review_id = ? AND reporter_id = ? AND status = ?", reviewID, reporterID, models.ReportStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns reports with their reviews, newest first, and the total count.
func (r *ReportRepository) List(ctx context.Context, filter ReportFilter) ([]models.ReviewReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReviewReport{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.ReviewReport
	err := query.
		Preload("Review").
		Order("created_at DESC, id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// OldestPending returns up to limit pending reports, oldest first.
func (r *ReportRepository) OldestPending(ctx context.Context, limit int) ([]models.ReviewReport, error) {
	var reports []models.ReviewReport
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ReportStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

// CountByStatus counts reports in the given status.
func (r *ReportRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReviewReport{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// SaveTriage persists the status and moderator fields of a report.
func (r *ReportRepository) SaveTriage(ctx context.Context, report *models.ReviewReport) error {
	return r.db.WithContext(ctx).Model(report).
		Select("status", "moderator_id", "resolution_notes", "resolved_at", "updated_at").
		Updates(report).Error
}
