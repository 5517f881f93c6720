package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Notifier delivers best-effort event notifications. Failures are logged and
// swallowed; callers never depend on delivery.
type Notifier interface {
	Notify(ctx context.Context, eventKind, summary string, metadata map[string]interface{})
}

// webhookNotifier posts Slack-compatible JSON payloads to a webhook URL
type webhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a webhook notifier. An empty URL yields a
// no-op notifier.
func NewWebhookNotifier(url string) Notifier {
	if url == "" {
		return NewNopNotifier()
	}
	return &webhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify posts the event to the webhook
func (n *webhookNotifier) Notify(ctx context.Context, eventKind, summary string, metadata map[string]interface{}) {
	payload := map[string]interface{}{
		"text":     summary,
		"event":    eventKind,
		"metadata": metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Warning: failed to marshal notification payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("Warning: failed to build notification request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("Warning: failed to deliver notification: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Printf("Warning: notification webhook returned %s", resp.Status)
	}
}

// nopNotifier discards all notifications
type nopNotifier struct{}

// NewNopNotifier creates a notifier that discards everything
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) Notify(context.Context, string, string, map[string]interface{}) {}
