package service

import (
	"context"
	"encoding/json"
	"log"
)

// AlertSink is the fire-and-forget alert channel consumed by the monitor.
type AlertSink interface {
	Notify(ctx context.Context, subject string, payload map[string]any) error
}

// AlertService delivers data-quality alerts.
type AlertService struct {
	// In a real deployment this would hold an SNS/PagerDuty/Slack client.
	// Delivery here is a structured log line; the quarantine table remains
	// the durable audit trail either way.
}

// NewAlertService creates a new AlertService.
func NewAlertService() *AlertService {
	return &AlertService{}
}

// Notify dispatches one alert. Failures are the caller's to ignore: alerts
// are best-effort by contract.
func (s *AlertService) Notify(ctx context.Context, subject string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	log.Printf("[ALERT] %s %s", subject, body)
	return nil
}

// Ensure AlertService implements AlertSink.
var _ AlertSink = (*AlertService)(nil)
