package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordReviewSubmitted(t *testing.T) {
	// Reset the counter before test
	ReviewsSubmittedTotal.Reset()

	RecordReviewSubmitted("skill_session", "approved")
	RecordReviewSubmitted("skill_session", "approved")
	RecordReviewSubmitted("project_participation", "pending")

	count := testutil.ToFloat64(ReviewsSubmittedTotal.WithLabelValues("skill_session", "approved"))
	if count != 2 {
		t.Errorf("Expected skill_session approved count = 2, got %f", count)
	}

	count = testutil.ToFloat64(ReviewsSubmittedTotal.WithLabelValues("project_participation", "pending"))
	if count != 1 {
		t.Errorf("Expected project_participation pending count = 1, got %f", count)
	}
}

func TestRecordTrustRecalculation(t *testing.T) {
	TrustScoreRecalculationsTotal.Reset()

	RecordTrustRecalculation("written")
	RecordTrustRecalculation("skipped")
	RecordTrustRecalculation("written")

	if got := testutil.ToFloat64(TrustScoreRecalculationsTotal.WithLabelValues("written")); got != 2 {
		t.Errorf("Expected written count = 2, got %f", got)
	}
	if got := testutil.ToFloat64(TrustScoreRecalculationsTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("Expected skipped count = 1, got %f", got)
	}
}

func TestRecordModerationAndReports(t *testing.T) {
	ModerationActionsTotal.Reset()
	ReviewReportsTotal.Reset()

	RecordModerationAction("rejected")
	RecordReviewReport("pending")
	RecordReviewReport("resolved")

	if got := testutil.ToFloat64(ModerationActionsTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("Expected rejected count = 1, got %f", got)
	}
	if got := testutil.ToFloat64(ReviewReportsTotal.WithLabelValues("resolved")); got != 1 {
		t.Errorf("Expected resolved count = 1, got %f", got)
	}
}

func TestBadgeMetrics(t *testing.T) {
	BadgesAwardedTotal.Reset()

	RecordBadgeAwarded("First Review", "bronze")
	RecordBadgeAwarded("First Review", "bronze")
	SetActiveBadgeHolders("First Review", 2)

	if got := testutil.ToFloat64(BadgesAwardedTotal.WithLabelValues("First Review", "bronze")); got != 2 {
		t.Errorf("Expected First Review awards = 2, got %f", got)
	}
	if got := testutil.ToFloat64(ActiveBadgeHolders.WithLabelValues("First Review")); got != 2 {
		t.Errorf("Expected First Review holders = 2, got %f", got)
	}
}

func TestSchedulerMetrics(t *testing.T) {
	SchedulerJobsRunTotal.Reset()

	RecordSchedulerJobRun("reconcile", "success")
	SetSchedulerLastRun("reconcile")
	ObserveSchedulerJobDuration("reconcile", 1.5)
	SetPendingReports(3)

	if got := testutil.ToFloat64(SchedulerJobsRunTotal.WithLabelValues("reconcile", "success")); got != 1 {
		t.Errorf("Expected reconcile success count = 1, got %f", got)
	}
	if got := testutil.ToFloat64(PendingReportsCount); got != 3 {
		t.Errorf("Expected pending reports = 3, got %f", got)
	}

	last := testutil.ToFloat64(SchedulerLastRunTimestamp.WithLabelValues("reconcile"))
	if time.Since(time.Unix(int64(last), 0)) > time.Minute {
		t.Errorf("Expected last run timestamp to be recent, got %f", last)
	}
}

func TestObserveTrustScore(t *testing.T) {
	ObserveTrustScore(4.133)

	if n := testutil.CollectAndCount(TrustScoreValue); n != 1 {
		t.Errorf("Expected 1 histogram series, got %d", n)
	}
}
