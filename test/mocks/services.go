package mocks

import (
	"context"
	"sync"

	"github.com/skillnexus/reputation-service/internal/mattermost"
	"github.com/skillnexus/reputation-service/internal/service/trust"
)

// MockNotifier records Mattermost notifications instead of sending them.
type MockNotifier struct {
	SendReportAlertFunc      func(alert mattermost.ReportAlert) error
	SendModerationDigestFunc func(total int64, oldest []mattermost.PendingReport) error

	mu      sync.Mutex
	Alerts  []mattermost.ReportAlert
	Digests []int64
}

// SendReportAlert records the alert.
func (m *MockNotifier) SendReportAlert(ctx context.Context, alert mattermost.ReportAlert) error {
	m.mu.Lock()
	m.Alerts = append(m.Alerts, alert)
	m.mu.Unlock()

	if m.SendReportAlertFunc != nil {
		return m.SendReportAlertFunc(alert)
	}
	return nil
}

// SendModerationDigest records the digest total.
func (m *MockNotifier) SendModerationDigest(ctx context.Context, total int64, oldest []mattermost.PendingReport) error {
	m.mu.Lock()
	m.Digests = append(m.Digests, total)
	m.mu.Unlock()

	if m.SendModerationDigestFunc != nil {
		return m.SendModerationDigestFunc(total, oldest)
	}
	return nil
}

// MockRecalculator records trust score recalculation requests.
type MockRecalculator struct {
	RecalculateFunc    func(userID uint) (*trust.Result, error)
	RecalculateAllFunc func() (trust.Summary, error)

	mu    sync.Mutex
	Calls []uint
}

// Recalculate records the user and delegates to RecalculateFunc.
func (m *MockRecalculator) Recalculate(ctx context.Context, userID uint) (*trust.Result, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, userID)
	m.mu.Unlock()

	if m.RecalculateFunc != nil {
		return m.RecalculateFunc(userID)
	}
	return &trust.Result{Skipped: true}, nil
}

// RecalculateAll delegates to RecalculateAllFunc.
func (m *MockRecalculator) RecalculateAll(ctx context.Context) (trust.Summary, error) {
	if m.RecalculateAllFunc != nil {
		return m.RecalculateAllFunc()
	}
	return trust.Summary{}, nil
}
