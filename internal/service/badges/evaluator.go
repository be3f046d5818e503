package badges

import (
	"fmt"

	"github.com/skillnexus/reputation-service/internal/models"
)

// Metric names a rule can test.
const (
	MetricTrustScore        = "trust_score"
	MetricRatingCount       = "rating_count"
	MetricCompletedSessions = "completed_sessions"
)

// Rule is one threshold badge. A user qualifies when the metric is >= Threshold.
type Rule struct {
	Name        string  `json:"name"`
	Tier        string  `json:"tier"`
	Description string  `json:"description"`
	Metric      string  `json:"metric"`
	Threshold   float64 `json:"threshold"`
}

// Rules is the fixed, ordered badge catalog. Rules are independent of each other.
var Rules = []Rule{
	{Name: "First Review", Tier: models.BadgeTierBronze, Metric: MetricRatingCount, Threshold: 1,
		Description: "Received a first approved review"},
	{Name: "First Session", Tier: models.BadgeTierBronze, Metric: MetricCompletedSessions, Threshold: 1,
		Description: "Completed a first teaching session"},
	{Name: "Reviewer", Tier: models.BadgeTierBronze, Metric: MetricRatingCount, Threshold: 5,
		Description: "Received 5 approved reviews"},
	{Name: "Trusted Teacher", Tier: models.BadgeTierSilver, Metric: MetricTrustScore, Threshold: 4.0,
		Description: "Reached a trust score of 4.0"},
	{Name: "Experienced", Tier: models.BadgeTierSilver, Metric: MetricCompletedSessions, Threshold: 10,
		Description: "Completed 10 teaching sessions"},
	{Name: "Highly Trusted", Tier: models.BadgeTierGold, Metric: MetricTrustScore, Threshold: 4.5,
		Description: "Reached a trust score of 4.5"},
	{Name: "Expert", Tier: models.BadgeTierGold, Metric: MetricCompletedSessions, Threshold: 50,
		Description: "Completed 50 teaching sessions"},
	{Name: "Master Teacher", Tier: models.BadgeTierPlatinum, Metric: MetricTrustScore, Threshold: 4.8,
		Description: "Reached a trust score of 4.8"},
}

// thresholdEpsilon absorbs float error in exact hits such as 3.9999999999999996.
const thresholdEpsilon = 1e-9

// Stats is the input snapshot the rules are evaluated against.
type Stats struct {
	TrustScore        float64
	RatingCount       int
	CompletedSessions int
}

// metrics flattens the snapshot into the values rules refer to.
func (s Stats) metrics() map[string]float64 {
	return map[string]float64{
		MetricTrustScore:        s.TrustScore,
		MetricRatingCount:       float64(s.RatingCount),
		MetricCompletedSessions: float64(s.CompletedSessions),
	}
}

// Qualifies reports whether stats meet the rule's threshold.
func (r Rule) Qualifies(stats Stats) (bool, error) {
	value, ok := stats.metrics()[r.Metric]
	if !ok {
		return false, fmt.Errorf("unknown badge metric: %s", r.Metric)
	}
	return value+thresholdEpsilon >= r.Threshold, nil
}

// Qualifying returns the rules met by stats, in catalog order.
func Qualifying(stats Stats) []Rule {
	var out []Rule
	for _, rule := range Rules {
		if ok, err := rule.Qualifies(stats); err == nil && ok {
			out = append(out, rule)
		}
	}
	return out
}
