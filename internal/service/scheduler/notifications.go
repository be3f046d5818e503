package scheduler

import (
	"time"

	"github.com/skillnexus/reputation-service/internal/mattermost"
	"github.com/skillnexus/reputation-service/internal/models"
)

// buildPendingReports transforms review reports into digest entries aged relative to now.
func buildPendingReports(reports []models.ReviewReport, now time.Time) []mattermost.PendingReport {
	pending := make([]mattermost.PendingReport, 0, len(reports))

	for _, report := range reports {
		// Clock skew between the database and this host.
		age := now.Sub(report.CreatedAt)
		if age < 0 {
			age = 0
		}

		pending = append(pending, mattermost.PendingReport{
			ReportID: report.ID,
			ReviewID: report.ReviewID,
			Reason:   report.Reason,
			Age:      age,
		})
	}

	return pending
}
