// Package notify implements the Notifier boundary: delivering a rendered
// title/body pair to the user. Delivery is fire-and-forget from the
// pipeline's perspective; failures are reported as notify_failed, logged by
// the caller, and never retried within the same cycle. Rate limiting happens
// upstream in the policy gate, not here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"umbrella/internal/external"
	"umbrella/internal/types"
)

// DefaultTimeout bounds one webhook delivery.
const DefaultTimeout = 10 * time.Second

// maxResponseBodyRead limits how much of an error response is read for
// diagnostics.
const maxResponseBodyRead = 4096

// Compile-time assertions.
var (
	_ types.Notifier = (*WebhookNotifier)(nil)
	_ types.Notifier = (*LogNotifier)(nil)
)

// webhookPayload is the JSON body posted to the configured endpoint. The
// shape is generic enough for ntfy-style receivers and chat webhooks alike.
type webhookPayload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	SentAt string `json:"sent_at"`
}

// WebhookNotifier delivers notifications by POSTing JSON to a configured
// endpoint through the shared resilient client.
type WebhookNotifier struct {
	url    string
	http   *external.Client
	logger *slog.Logger
}

// WebhookConfig holds the configuration for creating a WebhookNotifier.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewWebhookNotifier creates a WebhookNotifier with the given configuration.
func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook notifier: url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &WebhookNotifier{
		url: cfg.URL,
		http: external.NewClient(
			&http.Client{Timeout: timeout},
			"notify-webhook",
			external.DefaultRetryPolicy(),
			"umbrella/1.0",
		),
		logger: logger,
	}, nil
}

// Send delivers the notification. Any transport or status failure collapses
// to notify_failed.
func (n *WebhookNotifier) Send(ctx context.Context, notification types.Notification) error {
	payload, err := json.Marshal(webhookPayload{
		Title:  notification.Title,
		Body:   notification.Body,
		SentAt: notification.SentAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeNotifyFailed, "encoding notification payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return types.NewAppError(types.ErrCodeNotifyFailed, "building notification request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return types.NewAppError(types.ErrCodeNotifyFailed, "notification delivery failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
		n.logger.ErrorContext(ctx, "notification endpoint rejected delivery",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return types.NewAppError(
			types.ErrCodeNotifyFailed,
			fmt.Sprintf("notification endpoint returned %d", resp.StatusCode),
			nil,
		)
	}

	n.logger.InfoContext(ctx, "notification delivered",
		"title", notification.Title,
	)
	return nil
}

// LogNotifier writes notifications to the structured log. It is the default
// when no webhook endpoint is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the notification.
func (n *LogNotifier) Send(ctx context.Context, notification types.Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"title", notification.Title,
		"body", notification.Body,
	)
	return nil
}
