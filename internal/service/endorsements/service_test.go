package endorsements_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/cache"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/service/endorsements"
	dbtest "github.com/skillnexus/reputation-service/internal/testutil"
	"github.com/skillnexus/reputation-service/pkg/logger"
	"github.com/skillnexus/reputation-service/test/mocks"
)

func boolPtr(b bool) *bool { return &b }

type fixture struct {
	db     *repository.DB
	svc    *endorsements.Service
	cache  *mocks.MockCache
	alice  *models.User
	bob    *models.User
	carol  *models.User
	golang *models.Skill
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.NewDB(t)
	mockCache := mocks.NewMockCache()
	svc := endorsements.NewService(
		repository.NewEndorsementRepository(db),
		repository.NewUserRepository(db),
		mockCache,
		logger.NewNop(),
	)

	alice := dbtest.CreateUser(t, db, "alice", models.UserRoleMember)
	bob := dbtest.CreateUser(t, db, "bob", models.UserRoleMember)
	carol := dbtest.CreateUser(t, db, "carol", models.UserRoleMember)
	return &fixture{
		db:     db,
		svc:    svc,
		cache:  mockCache,
		alice:  alice,
		bob:    bob,
		carol:  carol,
		golang: dbtest.CreateSkill(t, db, bob.ID, "Go"),
	}
}

func TestEndorse_DefaultsToPublic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := testutil.ToFloat64(prommetrics.EndorsementsTotal)

	endorsement, err := f.svc.Endorse(ctx, endorsements.EndorseInput{
		EndorserID:      f.alice.ID,
		EndorseeID:      f.bob.ID,
		SkillID:         f.golang.ID,
		EndorsementText: "Explains goroutines well",
	})
	require.NoError(t, err)
	assert.True(t, endorsement.IsPublic)
	assert.Equal(t, before+1, testutil.ToFloat64(prommetrics.EndorsementsTotal))

	var stored models.SkillEndorsement
	require.NoError(t, f.db.First(&stored, "endorser_id = ?", f.alice.ID).Error)
	assert.True(t, stored.IsPublic)
}

func TestEndorse_UpsertsAndInvalidatesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := cache.ProfileKey(f.bob.ID)

	_, err := f.svc.Endorse(ctx, endorsements.EndorseInput{
		EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID, EndorsementText: "first",
	})
	require.NoError(t, err)

	require.NoError(t, f.cache.Set(ctx, key, "{}", 0))
	_, err = f.svc.Endorse(ctx, endorsements.EndorseInput{
		EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID,
		EndorsementText: "second", IsPublic: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, f.cache.Has(key))

	var rows []models.SkillEndorsement
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "second", rows[0].EndorsementText)
	assert.False(t, rows[0].IsPublic)
}

func TestEndorse_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carolsSkill := dbtest.CreateSkill(t, f.db, f.carol.ID, "Rust")

	tests := []struct {
		name string
		in   endorsements.EndorseInput
		kind apperrors.Kind
	}{
		{
			name: "self endorsement",
			in:   endorsements.EndorseInput{EndorserID: f.bob.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID},
			kind: apperrors.KindValidation,
		},
		{
			name: "missing skill id",
			in:   endorsements.EndorseInput{EndorserID: f.alice.ID, EndorseeID: f.bob.ID},
			kind: apperrors.KindValidation,
		},
		{
			name: "text too long",
			in: endorsements.EndorseInput{
				EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID,
				EndorsementText: string(make([]byte, 501)),
			},
			kind: apperrors.KindValidation,
		},
		{
			name: "unknown endorsee",
			in:   endorsements.EndorseInput{EndorserID: f.alice.ID, EndorseeID: 9999, SkillID: f.golang.ID},
			kind: apperrors.KindNotFound,
		},
		{
			name: "unknown skill",
			in:   endorsements.EndorseInput{EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: 9999},
			kind: apperrors.KindNotFound,
		},
		{
			name: "skill owned by someone else",
			in:   endorsements.EndorseInput{EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: carolsSkill.ID},
			kind: apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Endorse(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestEndorse_CacheOutageDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.cache.Err = mocks.ErrUnavailable

	_, err := f.svc.Endorse(context.Background(), endorsements.EndorseInput{
		EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID,
	})
	assert.NoError(t, err)
}

func TestList_PublicOnlyWithCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sql := dbtest.CreateSkill(t, f.db, f.bob.ID, "SQL")
	dave := dbtest.CreateUser(t, f.db, "dave", models.UserRoleMember)

	for _, in := range []endorsements.EndorseInput{
		{EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID, EndorsementText: "great"},
		{EndorserID: f.carol.ID, EndorseeID: f.bob.ID, SkillID: f.golang.ID},
		{EndorserID: f.alice.ID, EndorseeID: f.bob.ID, SkillID: sql.ID},
		{EndorserID: dave.ID, EndorseeID: f.bob.ID, SkillID: sql.ID, IsPublic: boolPtr(false)},
	} {
		_, err := f.svc.Endorse(ctx, in)
		require.NoError(t, err)
	}

	listing, err := f.svc.List(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, listing.Endorsements, 3)
	for _, e := range listing.Endorsements {
		assert.NotEqual(t, dave.ID, e.EndorserID)
		assert.NotEmpty(t, e.SkillName)
		assert.NotEmpty(t, e.EndorserUsername)
	}

	require.Len(t, listing.SkillCounts, 2)
	assert.Equal(t, "Go", listing.SkillCounts[0].SkillName)
	assert.Equal(t, int64(2), listing.SkillCounts[0].Count)
	assert.Equal(t, "SQL", listing.SkillCounts[1].SkillName)
	assert.Equal(t, int64(1), listing.SkillCounts[1].Count)

	empty, err := f.svc.List(ctx, f.carol.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Endorsements)
	assert.NotNil(t, empty.SkillCounts)
}
