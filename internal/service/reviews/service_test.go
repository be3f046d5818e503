package reviews_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/service/badges"
	"github.com/skillnexus/reputation-service/internal/service/reviews"
	"github.com/skillnexus/reputation-service/internal/service/trust"
	"github.com/skillnexus/reputation-service/internal/testutil"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

type fixture struct {
	db     *repository.DB
	svc    *reviews.Service
	scores *repository.TrustRepository
	badges *repository.BadgeRepository
}

func newFixture(t *testing.T, defaultStatus string) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.NewNop()
	reviewRepo := repository.NewReviewRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	scoreRepo := repository.NewTrustRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	calculator := trust.NewService(reviewRepo, bookingRepo, scoreRepo, badges.NewService(badgeRepo, log), nil, log)
	svc := reviews.NewService(reviewRepo, bookingRepo, calculator, defaultStatus, log)
	return &fixture{db: db, svc: svc, scores: scoreRepo, badges: badgeRepo}
}

func uintPtr(v uint) *uint { return &v }

func TestSubmit_EndToEndFirstReview(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)

	review, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID,
		BookingID:  &booking.ID,
		Rating:     5,
		ReviewText: "Great teacher",
		ReviewType: models.ReviewTypeSkillSession,
	})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, review.RevieweeID)
	assert.Equal(t, models.ModerationApproved, review.ModerationStatus)

	score, err := f.scores.GetByUserID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, score.RatingCount)
	assert.InDelta(t, 5.0, score.AverageRating, 0.001)

	held, err := f.badges.GetUserBadges(ctx, teacher.ID)
	require.NoError(t, err)
	var names []string
	for _, b := range held {
		names = append(names, b.BadgeName)
	}
	assert.Contains(t, names, "First Review")
	assert.Contains(t, names, "First Session")

	// The reviewer's own reputation is untouched.
	_, err = f.scores.GetByUserID(ctx, student.ID)
	assert.Error(t, err)
}

func TestSubmit_TeacherReviewsStudent(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)

	review, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: teacher.ID,
		BookingID:  &booking.ID,
		Rating:     4,
		ReviewType: models.ReviewTypeSkillSession,
	})
	require.NoError(t, err)
	assert.Equal(t, student.ID, review.RevieweeID)
}

func TestSubmit_DuplicateIsConflict(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)

	in := reviews.SubmitInput{
		ReviewerID: student.ID,
		BookingID:  &booking.ID,
		Rating:     5,
		ReviewType: models.ReviewTypeSkillSession,
	}
	_, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, in)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict), "got %v", err)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)
	project := testutil.CreateProject(t, f.db, teacher.ID, student.ID)

	tests := []struct {
		name string
		in   reviews.SubmitInput
	}{
		{"rating too low", reviews.SubmitInput{BookingID: &booking.ID, Rating: 0, ReviewType: models.ReviewTypeSkillSession}},
		{"rating too high", reviews.SubmitInput{BookingID: &booking.ID, Rating: 6, ReviewType: models.ReviewTypeSkillSession}},
		{"no target", reviews.SubmitInput{Rating: 3, ReviewType: models.ReviewTypeSkillSession}},
		{"both targets", reviews.SubmitInput{BookingID: &booking.ID, ProjectID: &project.ID, Rating: 3, ReviewType: models.ReviewTypeSkillSession}},
		{"text too long", reviews.SubmitInput{BookingID: &booking.ID, Rating: 3, ReviewText: strings.Repeat("a", 1001), ReviewType: models.ReviewTypeSkillSession}},
		{"unknown type", reviews.SubmitInput{BookingID: &booking.ID, Rating: 3, ReviewType: "gossip"}},
		{"type mismatch", reviews.SubmitInput{BookingID: &booking.ID, Rating: 3, ReviewType: models.ReviewTypeProjectParticipation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.ReviewerID = student.ID
			_, err := f.svc.Submit(ctx, tt.in)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmit_BookingRules(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	outsider := testutil.CreateUser(t, f.db, "outsider", models.UserRoleMember)
	completed := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)
	confirmed := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusConfirmed)

	_, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: outsider.ID, BookingID: &completed.ID, Rating: 3, ReviewType: models.ReviewTypeSkillSession,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden), "got %v", err)

	_, err = f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID, BookingID: &confirmed.ID, Rating: 3, ReviewType: models.ReviewTypeSkillSession,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidState), "got %v", err)

	_, err = f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID, BookingID: uintPtr(9999), Rating: 3, ReviewType: models.ReviewTypeSkillSession,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "got %v", err)
}

func TestSubmit_ProjectRules(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	creator := testutil.CreateUser(t, f.db, "creator", models.UserRoleMember)
	member := testutil.CreateUser(t, f.db, "member", models.UserRoleMember)
	outsider := testutil.CreateUser(t, f.db, "outsider", models.UserRoleMember)
	project := testutil.CreateProject(t, f.db, creator.ID, member.ID)

	review, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: member.ID, ProjectID: &project.ID, Rating: 4, ReviewType: models.ReviewTypeProjectParticipation,
	})
	require.NoError(t, err)
	assert.Equal(t, creator.ID, review.RevieweeID)

	_, err = f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: outsider.ID, ProjectID: &project.ID, Rating: 4, ReviewType: models.ReviewTypeProjectParticipation,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden), "got %v", err)

	_, err = f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: creator.ID, ProjectID: &project.ID, Rating: 5, ReviewType: models.ReviewTypeProjectParticipation,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation), "got %v", err)

	_, err = f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: member.ID, ProjectID: uintPtr(9999), Rating: 4, ReviewType: models.ReviewTypeProjectParticipation,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound), "got %v", err)
}

func TestSubmit_PendingDefaultDoesNotScore(t *testing.T) {
	f := newFixture(t, models.ModerationPending)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)

	review, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID, BookingID: &booking.ID, Rating: 5, ReviewType: models.ReviewTypeSkillSession,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ModerationPending, review.ModerationStatus)

	_, err = f.scores.GetByUserID(ctx, teacher.ID)
	assert.Error(t, err)
}

type failingRecalculator struct{ calls int }

func (f *failingRecalculator) Recalculate(ctx context.Context, userID uint) (*trust.Result, error) {
	f.calls++
	return nil, errors.New("score store unavailable")
}

func TestSubmit_CalculatorFailureIsSwallowed(t *testing.T) {
	db := testutil.NewDB(t)
	recalc := &failingRecalculator{}
	svc := reviews.NewService(
		repository.NewReviewRepository(db),
		repository.NewBookingRepository(db),
		recalc,
		models.ModerationApproved,
		logger.NewNop(),
	)
	ctx := context.Background()

	student := testutil.CreateUser(t, db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, db, student.ID, teacher.ID, models.BookingStatusCompleted)

	review, err := svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID, BookingID: &booking.ID, Rating: 2, ReviewType: models.ReviewTypeSkillSession,
	})
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, 1, recalc.calls)
}

func TestListForUser_HidesAnonymousReviewer(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	alice := testutil.CreateUser(t, f.db, "alice", models.UserRoleMember)
	bob := testutil.CreateUser(t, f.db, "bob", models.UserRoleMember)

	for _, tc := range []struct {
		reviewer  uint
		anonymous bool
	}{{alice.ID, false}, {bob.ID, true}} {
		booking := testutil.CreateBooking(t, f.db, tc.reviewer, teacher.ID, models.BookingStatusCompleted)
		_, err := f.svc.Submit(ctx, reviews.SubmitInput{
			ReviewerID: tc.reviewer, BookingID: &booking.ID, Rating: 4,
			ReviewType: models.ReviewTypeSkillSession, IsAnonymous: tc.anonymous,
		})
		require.NoError(t, err)
	}

	page, err := f.svc.ListForUser(ctx, reviews.ListInput{RevieweeID: teacher.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.Equal(t, 10, page.Pagination.Limit)
	require.Len(t, page.Reviews, 2)

	for _, r := range page.Reviews {
		if r.IsAnonymous {
			assert.Nil(t, r.ReviewerID)
			assert.Empty(t, r.ReviewerUsername)
		} else {
			require.NotNil(t, r.ReviewerID)
			assert.Equal(t, alice.ID, *r.ReviewerID)
			assert.Equal(t, "alice", r.ReviewerUsername)
		}
	}

	_, err = f.svc.ListForUser(ctx, reviews.ListInput{RevieweeID: teacher.ID, ReviewType: "gossip"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestRespond(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)
	review, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID, BookingID: &booking.ID, Rating: 3, ReviewType: models.ReviewTypeSkillSession,
	})
	require.NoError(t, err)

	err = f.svc.Respond(ctx, review.ID, student.ID, "answering myself")
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	err = f.svc.Respond(ctx, review.ID, teacher.ID, "")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	err = f.svc.Respond(ctx, 9999, teacher.ID, "hello")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	require.NoError(t, f.svc.Respond(ctx, review.ID, teacher.ID, "Thanks for the feedback"))

	var stored models.Review
	require.NoError(t, f.db.First(&stored, review.ID).Error)
	assert.Equal(t, "Thanks for the feedback", stored.ResponseText)
	assert.NotNil(t, stored.ResponseAt)
}

func TestVote(t *testing.T) {
	f := newFixture(t, models.ModerationApproved)
	ctx := context.Background()

	student := testutil.CreateUser(t, f.db, "student", models.UserRoleMember)
	teacher := testutil.CreateUser(t, f.db, "teacher", models.UserRoleMember)
	voter := testutil.CreateUser(t, f.db, "voter", models.UserRoleMember)
	booking := testutil.CreateBooking(t, f.db, student.ID, teacher.ID, models.BookingStatusCompleted)
	review, err := f.svc.Submit(ctx, reviews.SubmitInput{
		ReviewerID: student.ID, BookingID: &booking.ID, Rating: 3, ReviewType: models.ReviewTypeSkillSession,
	})
	require.NoError(t, err)

	_, err = f.svc.Vote(ctx, review.ID, student.ID, models.VoteHelpful)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.svc.Vote(ctx, review.ID, voter.ID, "love")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	helpful, err := f.svc.Vote(ctx, review.ID, voter.ID, models.VoteHelpful)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful)

	helpful, err = f.svc.Vote(ctx, review.ID, teacher.ID, models.VoteHelpful)
	require.NoError(t, err)
	assert.Equal(t, 2, helpful)

	helpful, err = f.svc.Vote(ctx, review.ID, voter.ID, models.VoteNotHelpful)
	require.NoError(t, err)
	assert.Equal(t, 1, helpful)
}
