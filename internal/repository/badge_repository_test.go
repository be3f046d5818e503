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

func newTestBadge(userID uint, name string) *models.UserBadge {
	return &models.UserBadge{
		UserID:           userID,
		BadgeType:        models.BadgeTierBronze,
		BadgeName:        name,
		BadgeDescription: name + " description",
		EarnedAt:         time.Now(),
	}
}

func TestBadgeRepository_AwardBadgeIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewBadgeRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "teacher", models.UserRoleMember)

	created, err := repo.AwardBadge(ctx, newTestBadge(user.ID, "First Review"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.AwardBadge(ctx, newTestBadge(user.ID, "First Review"))
	require.NoError(t, err)
	assert.False(t, created)

	badges, err := repo.GetUserBadges(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestBadgeRepository_UniqueIndexBacksExistenceCheck(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "teacher", models.UserRoleMember)
	require.NoError(t, db.Create(newTestBadge(user.ID, "Expert")).Error)

	err := db.WithContext(ctx).Create(newTestBadge(user.ID, "Expert")).Error
	assert.Error(t, err)
}

func TestBadgeRepository_HoldersAndListing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewBadgeRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.UserRoleMember)
	bob := testutil.CreateUser(t, db, "bob", models.UserRoleMember)

	for _, b := range []*models.UserBadge{
		newTestBadge(alice.ID, "First Review"),
		newTestBadge(alice.ID, "Reviewer"),
		newTestBadge(bob.ID, "First Review"),
	} {
		_, err := repo.AwardBadge(ctx, b)
		require.NoError(t, err)
	}

	holders, err := repo.CountHolders(ctx, "First Review")
	require.NoError(t, err)
	assert.Equal(t, int64(2), holders)

	has, err := repo.HasUserEarnedBadge(ctx, bob.ID, "Reviewer")
	require.NoError(t, err)
	assert.False(t, has)

	badges, err := repo.GetUserBadges(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, "First Review", badges[0].BadgeName)
}
