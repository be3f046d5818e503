package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/testutil"
)

func TestReportRepository_Lifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewReportRepository(db)
	ctx := context.Background()

	student := testutil.CreateUser(t, db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, db, "teacher", models.UserRoleMember)
	moderator := testutil.CreateUser(t, db, "mod", models.UserRoleModerator)
	booking := testutil.CreateBooking(t, db, student.ID, teacher.ID, models.BookingStatusCompleted)
	review := testutil.CreateReview(t, db, &models.Review{
		ReviewerID: student.ID,
		RevieweeID: teacher.ID,
		BookingID:  &booking.ID,
		Rating:     1,
	})

	report := &models.ReviewReport{
		ReviewID:   review.ID,
		ReporterID: teacher.ID,
		Reason:     "spam",
		Status:     models.ReportStatusPending,
	}
	require.NoError(t, repo.Create(ctx, report))

	pending, err := repo.HasPendingReport(ctx, review.ID, teacher.ID)
	require.NoError(t, err)
	assert.True(t, pending)

	count, err := repo.CountByStatus(ctx, models.ReportStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	reports, total, err := repo.List(ctx, repository.ReportFilter{Status: models.ReportStatusPending, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Review)
	assert.Equal(t, review.ID, reports[0].Review.ID)

	now := time.Now()
	report.Status = models.ReportStatusResolved
	report.ModeratorID = &moderator.ID
	report.ResolutionNotes = "removed"
	report.ResolvedAt = &now
	require.NoError(t, repo.SaveTriage(ctx, report))

	stored, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)

	pending, err = repo.HasPendingReport(ctx, review.ID, teacher.ID)
	require.NoError(t, err)
	assert.False(t, pending)

	oldest, err := repo.OldestPending(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, oldest)
}
