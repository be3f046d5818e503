package repository

import (
	"context"

	"github.com/skillnexus/reputation-service/internal/models"
)

// BookingRepository reads bookings and projects owned by the scheduling and
// project services.
type BookingRepository struct {
	db *DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// SessionCounts summarizes a user's bookings as teacher.
type SessionCounts struct {
	Total     int64
	Completed int64
}

// GetBooking retrieves a booking by its ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetProject retrieves a project by its ID.
func (r *BookingRepository) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// IsProjectParticipant reports whether userID joined the project.
func (r *BookingRepository) IsProjectParticipant(ctx context.Context, projectID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectParticipant{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TeacherSessionCounts counts all and completed bookings where userID is the teacher.
func (r *BookingRepository) TeacherSessionCounts(ctx context.Context, userID uint) (SessionCounts, error) {
	var row struct {
		Total     int64
		Completed int64
	}
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed",
			models.BookingStatusCompleted).
		Where("teacher_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return SessionCounts{}, err
	}
	return SessionCounts{Total: row.Total, Completed: row.Completed}, nil
}
