package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"rentalsync/res/notification"
)

// notifier implements notification.Notifier over an incoming webhook.
type notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *log.Logger
}

// slackMessage represents the structure of a Slack message
type slackMessage struct {
	Text string `json:"text"`
}

// New creates a Notifier instance bound to a Slack incoming webhook.
func New(webhookURL string, timeout time.Duration, logger *log.Logger) notification.Notifier {
	return &notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts title+body to the configured webhook. It never returns an
// error: failures are logged and reported back as false (§6, "best-effort
// delivery; failure is logged, never fatal").
func (s *notifier) Send(ctx context.Context, title, body string) bool {
	if s.webhookURL == "" {
		s.logger.Printf("slack webhook not configured, skipping notification %q", title)
		return false
	}

	message := slackMessage{Text: fmt.Sprintf("*%s*\n%s", title, body)}

	if err := s.sendToSlack(ctx, message); err != nil {
		s.logger.Printf("slack notification %q failed: %v", title, err)
		return false
	}
	return true
}

func (s *notifier) sendToSlack(ctx context.Context, message slackMessage) error {
	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack API returned non-OK status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
