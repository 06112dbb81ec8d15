package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"thyknow/metrics"
	"thyknow/services"
	"thyknow/utils"
)

// ReminderDispatcher posts due reminders to the messaging layer's webhook.
type ReminderDispatcher struct {
	WebhookURL string
	Token      string
	HTTPClient *http.Client
}

func NewReminderDispatcher(webhookURL, serviceToken string) *ReminderDispatcher {
	return &ReminderDispatcher{
		WebhookURL: webhookURL,
		Token:      serviceToken,
		HTTPClient: utils.HTTPClient,
	}
}

func (d *ReminderDispatcher) SendReminder(ctx context.Context, r services.Reminder) error {
	err := d.post(ctx, r)
	if err != nil {
		metrics.RemindersDispatched.WithLabelValues("failed").Inc()
		log.Printf("❌ [REMINDER] %s (%s): %v", r.UserID, r.WeekID, err)
		return err
	}
	metrics.RemindersDispatched.WithLabelValues("sent").Inc()
	log.Printf("📨 [REMINDER] sent to %s for %s", r.UserID, r.WeekID)
	return nil
}

func (d *ReminderDispatcher) post(ctx context.Context, r services.Reminder) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode reminder: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", d.Token)

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call messaging webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("messaging webhook returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
