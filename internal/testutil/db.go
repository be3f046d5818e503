// Package testutil provides in-memory database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
)

// NewDB creates an in-memory SQLite database with every table migrated.
func NewDB(t *testing.T) *repository.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Every pooled connection to :memory: would get its own database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repoDB := &repository.DB{DB: db}
	if err := repoDB.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}
	return repoDB
}

// CreateUser creates a user with the given role.
func CreateUser(t *testing.T, db *repository.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateSkill creates a skill owned by userID.
func CreateSkill(t *testing.T, db *repository.DB, userID uint, name string) *models.Skill {
	t.Helper()

	skill := &models.Skill{UserID: userID, Name: name, Category: "general"}
	if err := db.Omit("User").Create(skill).Error; err != nil {
		t.Fatalf("Failed to create test skill: %v", err)
	}
	return skill
}

// CreateBooking creates a booking between a student and a teacher.
func CreateBooking(t *testing.T, db *repository.DB, studentID, teacherID uint, status string) *models.Booking {
	t.Helper()

	scheduled := time.Now().Add(-24 * time.Hour)
	booking := &models.Booking{
		StudentID:   studentID,
		TeacherID:   teacherID,
		Status:      status,
		ScheduledAt: &scheduled,
	}
	if err := db.Omit("Student", "Teacher").Create(booking).Error; err != nil {
		t.Fatalf("Failed to create test booking: %v", err)
	}
	return booking
}

// CreateBookings creates n bookings taught by teacherID, the first completed of
// which have status completed and the rest cancelled.
func CreateBookings(t *testing.T, db *repository.DB, studentID, teacherID uint, n, completed int) []*models.Booking {
	t.Helper()

	bookings := make([]*models.Booking, 0, n)
	for i := 0; i < n; i++ {
		status := models.BookingStatusCancelled
		if i < completed {
			status = models.BookingStatusCompleted
		}
		bookings = append(bookings, CreateBooking(t, db, studentID, teacherID, status))
	}
	return bookings
}

// CreateProject creates a project with the creator and the given members as participants.
func CreateProject(t *testing.T, db *repository.DB, creatorID uint, memberIDs ...uint) *models.Project {
	t.Helper()

	project := &models.Project{
		CreatorID: creatorID,
		Title:     fmt.Sprintf("project-%d", time.Now().UnixNano()),
		Status:    "active",
	}
	if err := db.Omit("Creator", "Participants").Create(project).Error; err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}

	for _, uid := range append([]uint{creatorID}, memberIDs...) {
		participant := &models.ProjectParticipant{
			ProjectID: project.ID,
			UserID:    uid,
			Role:      "member",
			JoinedAt:  time.Now(),
		}
		if err := db.Omit("User").Create(participant).Error; err != nil {
			t.Fatalf("Failed to add project participant: %v", err)
		}
	}
	return project
}

// CreateReview inserts a review directly, bypassing intake validation.
func CreateReview(t *testing.T, db *repository.DB, review *models.Review) *models.Review {
	t.Helper()

	if review.ModerationStatus == "" {
		review.ModerationStatus = models.ModerationApproved
	}
	if review.ReviewType == "" {
		review.ReviewType = models.ReviewTypeSkillSession
	}
	if err := db.Omit("Reviewer", "Reviewee").Create(review).Error; err != nil {
		t.Fatalf("Failed to create test review: %v", err)
	}
	return review
}
