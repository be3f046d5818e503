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

func TestTrustRepository_UpsertOverwrites(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewTrustRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "teacher", models.UserRoleMember)

	first := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, repo.Upsert(ctx, &models.TrustScore{
		UserID:         user.ID,
		OverallScore:   3.5,
		RatingCount:    1,
		AverageRating:  4,
		LastCalculated: first,
	}))

	second := time.Now().Truncate(time.Second)
	require.NoError(t, repo.Upsert(ctx, &models.TrustScore{
		UserID:             user.ID,
		OverallScore:       4.133,
		RatingCount:        3,
		AverageRating:      4.667,
		CompletionRate:     80,
		TotalSessions:      10,
		SuccessfulSessions: 8,
		LastCalculated:     second,
	}))

	var rows int64
	require.NoError(t, db.Model(&models.TrustScore{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	score, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, score.RatingCount)
	assert.InDelta(t, 4.133, score.OverallScore, 0.0001)
	assert.Equal(t, 8, score.SuccessfulSessions)
	assert.True(t, score.LastCalculated.After(first))
}
