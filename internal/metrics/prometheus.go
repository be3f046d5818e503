// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the reputation service.
var (
	// Counters.
	ReviewsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_submitted_total",
			Help: "Total number of reviews submitted",
		},
		[]string{"review_type", "moderation_status"},
	)

	ReviewVotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_votes_total",
			Help: "Total number of helpfulness votes cast",
		},
		[]string{"vote_type"},
	)

	ModerationActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Total number of moderation decisions on reviews",
		},
		[]string{"status"},
	)

	ReviewReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_reports_total",
			Help: "Total number of review reports by lifecycle event",
		},
		[]string{"status"},
	)

	EndorsementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skill_endorsements_total",
			Help: "Total number of skill endorsements created or updated",
		},
	)

	TrustScoreRecalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trust_score_recalculations_total",
			Help: "Total trust score recalculations by outcome",
		},
		[]string{"status"}, // written, skipped, error
	)

	ProfileCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reputation_profile_cache_lookups_total",
			Help: "Reputation profile cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// Histograms.
	TrustScoreValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trust_score_value",
			Help:    "Distribution of computed overall trust scores",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 10), // 0.5 to 5.0
		},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	SchedulerNotificationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_notifications_sent_total",
			Help: "Total successful moderation digests sent",
		},
	)

	SchedulerNotificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_notifications_failed_total",
			Help: "Total failed notification attempts",
		},
		[]string{"reason"},
	)

	PendingReportsCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_reports_pending",
			Help: "Number of pending review reports at the last digest",
		},
	)

	SchedulerLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
		[]string{"job"},
	)

	SchedulerJobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Time taken to execute a scheduler job",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~1024s
		},
		[]string{"job"},
	)

	// Badge gamification metrics.
	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of badges awarded",
		},
		[]string{"badge_name", "tier"},
	)

	ActiveBadgeHolders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_badge_holders",
			Help: "Current number of users holding each badge",
		},
		[]string{"badge_name"},
	)
)

// RecordReviewSubmitted records an accepted review submission.
func RecordReviewSubmitted(reviewType, moderationStatus string) {
	ReviewsSubmittedTotal.WithLabelValues(reviewType, moderationStatus).Inc()
}

// RecordReviewVote records a helpfulness vote.
func RecordReviewVote(voteType string) {
	ReviewVotesTotal.WithLabelValues(voteType).Inc()
}

// RecordModerationAction records a moderation decision.
func RecordModerationAction(status string) {
	ModerationActionsTotal.WithLabelValues(status).Inc()
}

// RecordReviewReport records a report entering the given status.
func RecordReviewReport(status string) {
	ReviewReportsTotal.WithLabelValues(status).Inc()
}

// RecordEndorsement records an endorsement upsert.
func RecordEndorsement() {
	EndorsementsTotal.Inc()
}

// RecordTrustRecalculation records the outcome of a trust score recalculation.
func RecordTrustRecalculation(status string) {
	TrustScoreRecalculationsTotal.WithLabelValues(status).Inc()
}

// ObserveTrustScore observes a freshly computed overall score.
func ObserveTrustScore(score float64) {
	TrustScoreValue.Observe(score)
}

// RecordProfileCacheLookup records a reputation profile cache lookup.
func RecordProfileCacheLookup(result string) {
	ProfileCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}

// RecordSchedulerNotificationSent records a successful notification sent.
func RecordSchedulerNotificationSent() {
	SchedulerNotificationsSentTotal.Inc()
}

// RecordSchedulerNotificationFailed records a failed notification attempt.
func RecordSchedulerNotificationFailed(reason string) {
	SchedulerNotificationsFailedTotal.WithLabelValues(reason).Inc()
}

// SetPendingReports sets the number of pending reports seen by the last digest.
func SetPendingReports(count int) {
	PendingReportsCount.Set(float64(count))
}

// SetSchedulerLastRun sets the timestamp of the last run of a job.
func SetSchedulerLastRun(job string) {
	SchedulerLastRunTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// ObserveSchedulerJobDuration observes the duration of a scheduler job.
func ObserveSchedulerJobDuration(job string, seconds float64) {
	SchedulerJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordBadgeAwarded records a badge award event.
func RecordBadgeAwarded(badgeName, tier string) {
	BadgesAwardedTotal.WithLabelValues(badgeName, tier).Inc()
}

// SetActiveBadgeHolders sets the number of holders for a badge.
func SetActiveBadgeHolders(badgeName string, count int) {
	ActiveBadgeHolders.WithLabelValues(badgeName).Set(float64(count))
}
