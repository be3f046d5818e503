package trust

import (
	"context"
	"fmt"
	"time"

	"github.com/skillnexus/reputation-service/internal/cache"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/repository"
	"github.com/skillnexus/reputation-service/internal/service/badges"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// ReviewRepository interface for the review reads the calculator needs.
type ReviewRepository interface {
	ApprovedRatings(ctx context.Context, revieweeID uint) ([]int, error)
	RevieweesWithApprovedReviews(ctx context.Context) ([]uint, error)
}

// BookingRepository interface for session counts.
type BookingRepository interface {
	TeacherSessionCounts(ctx context.Context, userID uint) (repository.SessionCounts, error)
}

// ScoreRepository interface for trust score persistence.
type ScoreRepository interface {
	Upsert(ctx context.Context, score *models.TrustScore) error
}

// BadgeEvaluator awards badges for a score snapshot.
type BadgeEvaluator interface {
	Evaluate(ctx context.Context, userID uint, stats badges.Stats) ([]models.UserBadge, error)
}

// Result describes one recalculation.
type Result struct {
	Score   *models.TrustScore
	Skipped bool // user has no approved reviews; nothing was written
	Awarded []models.UserBadge
}

// Summary describes a full reconciliation run.
type Summary struct {
	Users   int
	Written int
	Failed  int
	Awarded int
}

// Service recomputes trust scores from the full review and booking history.
type Service struct {
	reviewRepo  ReviewRepository
	bookingRepo BookingRepository
	scoreRepo   ScoreRepository
	evaluator   BadgeEvaluator
	cache       cache.Cache
	log         *logger.Logger
	now         func() time.Time
}

// NewService creates a new trust score service. profileCache may be nil.
func NewService(
	reviewRepo ReviewRepository,
	bookingRepo BookingRepository,
	scoreRepo ScoreRepository,
	evaluator BadgeEvaluator,
	profileCache cache.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		reviewRepo:  reviewRepo,
		bookingRepo: bookingRepo,
		scoreRepo:   scoreRepo,
		evaluator:   evaluator,
		cache:       profileCache,
		log:         log.Component("trust"),
		now:         time.Now,
	}
}

// Recalculate rebuilds the user's trust score and runs the badge evaluator.
// Users without approved reviews are skipped and keep no score row.
func (s *Service) Recalculate(ctx context.Context, userID uint) (*Result, error) {
	ratings, err := s.reviewRepo.ApprovedRatings(ctx, userID)
	if err != nil {
		prommetrics.RecordTrustRecalculation("error")
		return nil, fmt.Errorf("failed to load approved ratings: %w", err)
	}
	if len(ratings) == 0 {
		prommetrics.RecordTrustRecalculation("skipped")
		s.log.Debug().Uint("user_id", userID).Msg("No approved reviews, skipping trust score")
		return &Result{Skipped: true}, nil
	}

	sessions, err := s.bookingRepo.TeacherSessionCounts(ctx, userID)
	if err != nil {
		prommetrics.RecordTrustRecalculation("error")
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	average := AverageRating(ratings)
	completion := CompletionRate(sessions.Completed, sessions.Total)
	overall := OverallScore(average, completion)
	score := &models.TrustScore{
		UserID:             userID,
		OverallScore:       round3(overall),
		RatingCount:        len(ratings),
		AverageRating:      round3(average),
		CompletionRate:     round3(completion),
		TotalSessions:      int(sessions.Total),
		SuccessfulSessions: int(sessions.Completed),
		LastCalculated:     s.now(),
	}

	if err := s.scoreRepo.Upsert(ctx, score); err != nil {
		prommetrics.RecordTrustRecalculation("error")
		return nil, fmt.Errorf("failed to save trust score: %w", err)
	}
	prommetrics.RecordTrustRecalculation("written")
	prommetrics.ObserveTrustScore(score.OverallScore)
	s.invalidateProfile(ctx, userID)

	s.log.Info().
		Uint("user_id", userID).
		Float64("overall_score", score.OverallScore).
		Int("rating_count", score.RatingCount).
		Float64("completion_rate", score.CompletionRate).
		Msg("Trust score recalculated")

	result := &Result{Score: score}
	awarded, err := s.evaluator.Evaluate(ctx, userID, badges.Stats{
		TrustScore:        overall,
		RatingCount:       score.RatingCount,
		CompletedSessions: score.SuccessfulSessions,
	})
	result.Awarded = awarded
	if len(awarded) > 0 {
		s.invalidateProfile(ctx, userID)
	}
	if err != nil {
		return result, fmt.Errorf("failed to evaluate badges: %w", err)
	}
	return result, nil
}

// RecalculateAll recomputes the score of every user with approved reviews.
// Per-user failures are logged and counted, not returned.
func (s *Service) RecalculateAll(ctx context.Context) (Summary, error) {
	userIDs, err := s.reviewRepo.RevieweesWithApprovedReviews(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list reviewed users: %w", err)
	}

	summary := Summary{Users: len(userIDs)}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := s.Recalculate(ctx, userID)
		if result != nil {
			summary.Awarded += len(result.Awarded)
			if result.Score != nil {
				summary.Written++
			}
		}
		if err != nil {
			summary.Failed++
			s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to reconcile trust score")
		}
	}

	return summary, nil
}

// invalidateProfile drops the cached reputation profile. Failures only cost freshness.
func (s *Service) invalidateProfile(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.ProfileKey(userID)); err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to invalidate reputation profile")
	}
}
