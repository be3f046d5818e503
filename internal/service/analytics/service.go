// Package analytics summarizes the reviews a user has received and written.
package analytics

import (
	"context"
	"math"
	"time"

	"github.com/skillnexus/reputation-service/internal/apperrors"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// TrendMonths is the length of the monthly trend window, including the current month.
const TrendMonths = 12

// ReviewRepository interface for analytics reads.
type ReviewRepository interface {
	ListReceived(ctx context.Context, revieweeID uint) ([]models.Review, error)
	CountGiven(ctx context.Context, reviewerID uint) (int64, error)
}

// MonthlyTrend is the approved reviews received in one calendar month.
type MonthlyTrend struct {
	Month         string  `json:"month"` // YYYY-MM
	Count         int     `json:"count"`
	AverageRating float64 `json:"average_rating"`
}

// Report is a user's review analytics. Only approved reviews count toward
// the received figures; pending ones are reported separately.
type Report struct {
	UserID             uint           `json:"user_id"`
	ReviewsReceived    int            `json:"reviews_received"`
	ReviewsGiven       int64          `json:"reviews_given"`
	AverageRating      float64        `json:"average_rating"`
	HelpfulVotes       int            `json:"helpful_votes"`
	PendingModeration  int            `json:"pending_moderation"`
	MonthlyTrend       []MonthlyTrend `json:"monthly_trend"`
	RatingDistribution map[int]int    `json:"rating_distribution"`
}

// Service builds review analytics.
type Service struct {
	reviewRepo ReviewRepository
	log        *logger.Logger
	now        func() time.Time
}

// NewService creates an analytics service.
func NewService(reviewRepo ReviewRepository, log *logger.Logger) *Service {
	return &Service{
		reviewRepo: reviewRepo,
		log:        log.Component("analytics"),
		now:        time.Now,
	}
}

// ForUser returns the analytics of userID. Users may only read their own.
func (s *Service) ForUser(ctx context.Context, requesterID, userID uint) (*Report, error) {
	if requesterID != userID {
		return nil, apperrors.Forbidden("you can only view your own analytics")
	}

	received, err := s.reviewRepo.ListReceived(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load received reviews")
	}
	given, err := s.reviewRepo.CountGiven(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to count given reviews")
	}

	report := &Report{
		UserID:             userID,
		ReviewsGiven:       given,
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	window := s.trendWindow()
	index := make(map[string]int, len(window))
	sums := make([]int, len(window))
	for i, m := range window {
		index[m.Month] = i
	}

	total := 0
	for _, r := range received {
		switch r.ModerationStatus {
		case models.ModerationPending:
			report.PendingModeration++
			continue
		case models.ModerationApproved:
		default:
			continue
		}

		report.ReviewsReceived++
		report.HelpfulVotes += r.HelpfulVotes
		report.RatingDistribution[r.Rating]++
		total += r.Rating

		if i, ok := index[r.CreatedAt.UTC().Format("2006-01")]; ok {
			window[i].Count++
			sums[i] += r.Rating
		}
	}

	if report.ReviewsReceived > 0 {
		report.AverageRating = round2(float64(total) / float64(report.ReviewsReceived))
	}
	for i := range window {
		if window[i].Count > 0 {
			window[i].AverageRating = round2(float64(sums[i]) / float64(window[i].Count))
		}
	}
	report.MonthlyTrend = window

	s.log.Debug().
		Uint("user_id", userID).
		Int("received", report.ReviewsReceived).
		Int("pending", report.PendingModeration).
		Msg("Built review analytics")
	return report, nil
}

// trendWindow returns empty buckets for the last TrendMonths months, oldest first.
func (s *Service) trendWindow() []MonthlyTrend {
	now := s.now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	window := make([]MonthlyTrend, TrendMonths)
	for i := range window {
		month := current.AddDate(0, i-(TrendMonths-1), 0)
		window[i] = MonthlyTrend{Month: month.Format("2006-01")}
	}
	return window
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
