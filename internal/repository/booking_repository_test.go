package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/testutil"
)

func TestBookingRepository_TeacherSessionCounts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewBookingRepository(db)
	ctx := context.Background()

	student := testutil.CreateUser(t, db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, db, "teacher", models.UserRoleMember)

	counts, err := repo.TeacherSessionCounts(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.SessionCounts{}, counts)

	testutil.CreateBookings(t, db, student.ID, teacher.ID, 10, 8)
	// Bookings as a student do not count
	testutil.CreateBooking(t, db, teacher.ID, student.ID, models.BookingStatusCompleted)

	counts, err = repo.TeacherSessionCounts(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), counts.Total)
	assert.Equal(t, int64(8), counts.Completed)
}

func TestBookingRepository_Projects(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewBookingRepository(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "creator", models.UserRoleMember)
	member := testutil.CreateUser(t, db, "member", models.UserRoleMember)
	outsider := testutil.CreateUser(t, db, "outsider", models.UserRoleMember)
	project := testutil.CreateProject(t, db, creator.ID, member.ID)

	got, err := repo.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, creator.ID, got.CreatorID)

	ok, err := repo.IsProjectParticipant(ctx, project.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsProjectParticipant(ctx, project.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetProject(ctx, 4242)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetBooking(ctx, 4242)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
