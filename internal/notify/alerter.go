// Package notify sends webhook alerts when a lead's tier crosses an alerting
// threshold, so hot leads get a same-day follow-up instead of sitting in the
// database.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ctdebnam-png/TD-Realty-Social/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLeadHot  AlertType = "lead_hot"
	AlertLeadWarm AlertType = "lead_warm"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Config controls alert delivery.
type Config struct {
	WebhookURL  string `yaml:"webhook_url" mapstructure:"webhook_url"`
	AlertOnWarm bool   `yaml:"alert_on_warm" mapstructure:"alert_on_warm"`
}

// Alerter evaluates tier transitions and sends alerts via webhook.
type Alerter struct {
	cfg    Config
	client *http.Client
}

// NewAlerter creates a new Alerter with the given config.
func NewAlerter(cfg Config) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate returns the alerts a tier transition warrants. Only upward
// crossings alert: a lead that was already hot stays quiet, and demotions
// never page anyone.
func (a *Alerter) Evaluate(lead *model.Lead, previousTier model.Tier) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if lead.Tier == model.TierHot && previousTier != model.TierHot {
		alerts = append(alerts, Alert{
			Type:     AlertLeadHot,
			Severity: "high",
			Message: fmt.Sprintf("%s is now a hot lead (score %d, was %s)",
				lead.DisplayName(), lead.Score, tierLabel(previousTier)),
			Details:   alertDetails(lead, previousTier),
			Timestamp: now,
		})
	}

	if a.cfg.AlertOnWarm && lead.Tier == model.TierWarm &&
		previousTier != model.TierWarm && previousTier != model.TierHot {
		alerts = append(alerts, Alert{
			Type:     AlertLeadWarm,
			Severity: "medium",
			Message: fmt.Sprintf("%s warmed up (score %d, was %s)",
				lead.DisplayName(), lead.Score, tierLabel(previousTier)),
			Details:   alertDetails(lead, previousTier),
			Timestamp: now,
		})
	}

	return alerts
}

// Notify evaluates a transition and delivers any resulting alerts.
func (a *Alerter) Notify(ctx context.Context, lead *model.Lead, previousTier model.Tier) int {
	return a.SendAlerts(ctx, a.Evaluate(lead, previousTier))
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("notify: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("notify: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "notify: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func alertDetails(lead *model.Lead, previousTier model.Tier) map[string]any {
	return map[string]any{
		"lead_id":       lead.ID,
		"source":        lead.Source,
		"score":         lead.Score,
		"tier":          string(lead.Tier),
		"previous_tier": string(previousTier),
	}
}

func tierLabel(t model.Tier) string {
	if t == "" {
		return "unscored"
	}
	return string(t)
}
