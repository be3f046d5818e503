// Package trust computes and persists per-user trust scores.
package trust

import "math"

// Score weights. The baseline stands in for factors not modeled yet and
// always contributes BaselineScore*BaselineWeight points.
const (
	RatingWeight     = 0.5
	CompletionWeight = 0.3
	BaselineWeight   = 0.2
	BaselineScore    = 3.0

	MaxScore = 5.0
)

// AverageRating returns the mean of ratings, or 0 for an empty slice.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// CompletionRate returns completed/total as a percentage in [0,100], or 0 when total is 0.
func CompletionRate(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	return math.Min(math.Max(rate, 0), 100)
}

// OverallScore combines the average rating and completion rate into a 0..5 score.
// With the current weights the reachable maximum is 4.6.
func OverallScore(averageRating, completionRate float64) float64 {
	score := averageRating*RatingWeight +
		(completionRate/100*MaxScore)*CompletionWeight +
		BaselineScore*BaselineWeight
	return math.Min(math.Max(score, 0), MaxScore)
}

// round3 rounds to the three decimals the score columns store.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
