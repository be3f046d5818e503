// Package scheduler runs the periodic trust score reconciliation and the
// daily moderation digest.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skillnexus/reputation-service/internal/cache"
	"github.com/skillnexus/reputation-service/internal/config"
	"github.com/skillnexus/reputation-service/internal/mattermost"
	prommetrics "github.com/skillnexus/reputation-service/internal/metrics"
	"github.com/skillnexus/reputation-service/internal/models"
	"github.com/skillnexus/reputation-service/internal/service/trust"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

// Job names used in logs and metric labels.
const (
	JobReconcile = "reconcile"
	JobDigest    = "moderation_digest"
)

const (
	reconcileLockKey = "reputation:lock:reconcile"
	reconcileLockTTL = 30 * time.Minute
	digestSize       = 10
)

// Reconciler recomputes every trust score.
type Reconciler interface {
	RecalculateAll(ctx context.Context) (trust.Summary, error)
}

// ReportRepository interface for the digest's report reads.
type ReportRepository interface {
	OldestPending(ctx context.Context, limit int) ([]models.ReviewReport, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// DigestNotifier posts the moderation digest.
type DigestNotifier interface {
	SendModerationDigest(ctx context.Context, total int64, oldest []mattermost.PendingReport) error
}

// Service handles background job scheduling.
type Service struct {
	config     *config.SchedulerConfig
	reconciler Reconciler
	reportRepo ReportRepository
	notifier   DigestNotifier
	lock       cache.Cache
	log        *logger.Logger
	cron       *cron.Cron
	now        func() time.Time
}

// NewService creates a new scheduler service. lock may be nil, in which case
// reconciliation runs without a cross-instance lock.
func NewService(
	cfg *config.SchedulerConfig,
	reconciler Reconciler,
	reportRepo ReportRepository,
	notifier DigestNotifier,
	lock cache.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		config:     cfg,
		reconciler: reconciler,
		reportRepo: reportRepo,
		notifier:   notifier,
		lock:       lock,
		log:        log.Component("scheduler"),
		now:        time.Now,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.ReconcileSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.ReconcileSchedule, func() {
			s.runReconcile(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to register reconcile job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.ReconcileSchedule).
			Msg("Trust score reconcile job registered")
	}

	if s.config.DigestTime != "" {
		digestExpr, err := s.buildDigestExpression()
		if err != nil {
			return fmt.Errorf("failed to build digest schedule: %w", err)
		}
		if _, err := s.cron.AddFunc(digestExpr, func() {
			s.runModerationDigest(context.Background())
		}); err != nil {
			return fmt.Errorf("failed to register moderation digest job: %w", err)
		}
		s.log.Info().
			Str("schedule", digestExpr).
			Str("time", s.config.DigestTime).
			Bool("skip_weekends", s.config.SkipWeekends).
			Msg("Moderation digest job registered")
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}
	s.log.Info().
		Str("timezone", s.config.Timezone).
		Int("jobs", len(s.cron.Entries())).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildDigestExpression converts the HH:MM digest time into a cron expression.
func (s *Service) buildDigestExpression() (string, error) {
	parts := strings.Split(s.config.DigestTime, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", s.config.DigestTime)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	// Format: "minute hour day month weekday"
	if s.config.SkipWeekends {
		return fmt.Sprintf("%d %d * * 1-5", minute, hour), nil
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// runReconcile recomputes every trust score. Only one instance runs it at a time.
func (s *Service) runReconcile(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSchedulerJobDuration(JobReconcile, time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun(JobReconcile)
	}()

	if !s.acquireLock(ctx) {
		s.log.Info().Msg("Reconcile job already running elsewhere, skipping")
		prommetrics.RecordSchedulerJobRun(JobReconcile, "skipped")
		return
	}
	defer s.releaseLock(ctx)

	s.log.Info().Msg("Running trust score reconcile job")

	summary, err := s.reconciler.RecalculateAll(ctx)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Trust score reconcile job failed")
		prommetrics.RecordSchedulerJobRun(JobReconcile, "error")
		return
	}

	prommetrics.RecordSchedulerJobRun(JobReconcile, "success")
	s.log.Info().
		Int("users", summary.Users).
		Int("written", summary.Written).
		Int("failed", summary.Failed).
		Int("badges_awarded", summary.Awarded).
		Dur("duration", time.Since(start)).
		Msg("Trust score reconcile job completed")
}

// acquireLock takes the reconcile lock. A lock store outage does not block
// the job since recalculation is idempotent.
func (s *Service) acquireLock(ctx context.Context) bool {
	if s.lock == nil {
		return true
	}
	ok, err := s.lock.SetNX(ctx, reconcileLockKey, s.now().Unix(), reconcileLockTTL)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to acquire reconcile lock, running unlocked")
		return true
	}
	return ok
}

func (s *Service) releaseLock(ctx context.Context) {
	if s.lock == nil {
		return
	}
	if err := s.lock.Del(ctx, reconcileLockKey); err != nil {
		s.log.Warn().Err(err).Msg("Failed to release reconcile lock")
	}
}

// runModerationDigest posts the pending report summary to Mattermost.
func (s *Service) runModerationDigest(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSchedulerJobDuration(JobDigest, time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun(JobDigest)
	}()

	s.log.Info().Msg("Running moderation digest job")

	total, err := s.reportRepo.CountByStatus(ctx, models.ReportStatusPending)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count pending reports")
		prommetrics.RecordSchedulerJobRun(JobDigest, "error")
		prommetrics.RecordSchedulerNotificationFailed("query_error")
		return
	}
	prommetrics.SetPendingReports(int(total))

	if total == 0 {
		s.log.Debug().Msg("No pending reports to notify about")
		prommetrics.RecordSchedulerJobRun(JobDigest, "success")
		return
	}

	reports, err := s.reportRepo.OldestPending(ctx, digestSize)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list pending reports")
		prommetrics.RecordSchedulerJobRun(JobDigest, "error")
		prommetrics.RecordSchedulerNotificationFailed("query_error")
		return
	}

	sendStart := time.Now()
	if err := s.notifier.SendModerationDigest(ctx, total, buildPendingReports(reports, s.now())); err != nil {
		s.log.Error().
			Err(err).
			Dur("send_duration", time.Since(sendStart)).
			Msg("Failed to send moderation digest")
		prommetrics.RecordSchedulerJobRun(JobDigest, "error")
		prommetrics.RecordSchedulerNotificationFailed("mattermost_error")
		return
	}

	prommetrics.RecordSchedulerJobRun(JobDigest, "success")
	prommetrics.RecordSchedulerNotificationSent()
	s.log.Info().
		Int64("pending", total).
		Int("listed", len(reports)).
		Dur("total_duration", time.Since(start)).
		Msg("Successfully sent moderation digest")
}
