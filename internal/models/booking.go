package models

import (
	"time"
)

// BookingStatus constants.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a paid skill session between a student and a teacher.
type Booking struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	Student     User       `gorm:"foreignKey:StudentID" json:"-"`
	TeacherID   uint       `gorm:"not null;index" json:"teacher_id"`
	Teacher     User       `gorm:"foreignKey:TeacherID" json:"-"`
	SkillID     *uint      `gorm:"index" json:"skill_id"`
	Status      string     `gorm:"size:50;index;not null" json:"status"` // 'pending', 'confirmed', 'completed', 'cancelled'
	ScheduledAt *time.Time `json:"scheduled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Booking model.
func (Booking) TableName() string {
	return "bookings"
}

// IsParticipant reports whether userID is the student or the teacher.
func (b *Booking) IsParticipant(userID uint) bool {
	return b.StudentID == userID || b.TeacherID == userID
}

// Counterpart returns the other participant of the booking.
func (b *Booking) Counterpart(userID uint) uint {
	if b.StudentID == userID {
		return b.TeacherID
	}
	return b.StudentID
}

// Project represents a community project.
type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatorID uint      `gorm:"not null;index" json:"creator_id"`
	Creator   User      `gorm:"foreignKey:CreatorID" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Status    string    `gorm:"size:50" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Participants []ProjectParticipant `gorm:"foreignKey:ProjectID" json:"participants,omitempty"`
}

// TableName specifies the table name for Project model.
func (Project) TableName() string {
	return "projects"
}

// ProjectParticipant represents a user who joined a project.
type ProjectParticipant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_project_participants_member" json:"project_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_project_participants_member;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Role      string    `gorm:"size:50" json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// TableName specifies the table name for ProjectParticipant model.
func (ProjectParticipant) TableName() string {
	return "project_participants"
}
