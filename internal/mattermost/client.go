// Package mattermost provides webhook client for sending notifications to Mattermost.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/skillnexus/reputation-service/internal/config"
	"github.com/skillnexus/reputation-service/pkg/logger"
)

const botUsername = "SkillNexus Moderation"

// Client handles Mattermost webhook notifications.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new Mattermost client.
func NewClient(cfg *config.MattermostConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Component("mattermost"),
	}
}

// Message represents a Mattermost message payload.
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment.
type Attachment struct {
	Fallback string  `json:"fallback,omitempty"`
	Color    string  `json:"color,omitempty"`
	Pretext  string  `json:"pretext,omitempty"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Footer   string  `json:"footer,omitempty"`
}

// Field represents a message field.
type Field struct {
	Short bool   `json:"short"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// SendMessage sends a message to Mattermost.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Mattermost is disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Mattermost: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mattermost returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent message to Mattermost")

	return nil
}

// ReportAlert describes a newly filed review report.
type ReportAlert struct {
	ReportID   uint
	ReviewID   uint
	ReporterID uint
	RevieweeID uint
	Rating     int
	Reason     string
	Details    string
}

// SendReportAlert notifies moderators about a new review report.
func (c *Client) SendReportAlert(ctx context.Context, alert ReportAlert) error {
	fields := []Field{
		{Short: true, Title: "Reason", Value: alert.Reason},
		{Short: true, Title: "Rating", Value: fmt.Sprintf("%d/5", alert.Rating)},
		{Short: true, Title: "Reporter", Value: fmt.Sprintf("user #%d", alert.ReporterID)},
		{Short: true, Title: "Reviewed user", Value: fmt.Sprintf("user #%d", alert.RevieweeID)},
	}
	if alert.Details != "" {
		fields = append(fields, Field{Title: "Details", Value: alert.Details})
	}

	return c.SendMessage(ctx, &Message{
		Username: botUsername,
		Text:     fmt.Sprintf("🚩 Review #%d was reported (report #%d)", alert.ReviewID, alert.ReportID),
		Attachments: []Attachment{{
			Fallback: fmt.Sprintf("Review #%d reported: %s", alert.ReviewID, alert.Reason),
			Color:    "#d9534f",
			Fields:   fields,
		}},
	})
}

// PendingReport is one entry of the moderation digest.
type PendingReport struct {
	ReportID uint
	ReviewID uint
	Reason   string
	Age      time.Duration
}

// SendModerationDigest sends the daily summary of pending review reports.
func (c *Client) SendModerationDigest(ctx context.Context, total int64, oldest []PendingReport) error {
	if total == 0 {
		c.log.Debug().Msg("No pending reports, skipping moderation digest")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### 🛡️ Daily Moderation Digest\n\nThere are **%d** review reports waiting for triage.\n\n", total)
	for _, r := range oldest {
		icon := "•"
		if r.Age > 48*time.Hour {
			icon = "⚠️"
		}
		fmt.Fprintf(&b, "%s Report #%d on review #%d: %s (%s old)\n", icon, r.ReportID, r.ReviewID, r.Reason, formatAge(r.Age))
	}
	if int64(len(oldest)) < total {
		fmt.Fprintf(&b, "\n_…and %d more._", total-int64(len(oldest)))
	}

	return c.SendMessage(ctx, &Message{
		Username: botUsername,
		Text:     b.String(),
	})
}

func formatAge(age time.Duration) string {
	if age.Hours() > 24 {
		return fmt.Sprintf("%.1f days", age.Hours()/24)
	}
	return fmt.Sprintf("%.1f hours", age.Hours())
}
