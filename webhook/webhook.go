package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventMediaResolved   = "media.resolved"
	EventMediaFailed     = "media.failed"
	EventSelectorUpdated = "selector.updated"
	EventSelectorCleared = "selector.cleared"
	EventNotification    = "control.notification"
)

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Vidopen-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Vidopen-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// defaultRetryDelays: first attempt immediately, then retries after 1s, 5s, 30s.
var defaultRetryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Sender delivers events to one configured endpoint. A nil Sender or one
// with an empty URL drops every event, so callers need no nil checks.
type Sender struct {
	url    string
	secret string
	delays []time.Duration
}

// NewSender returns a Sender for url, or nil when url is empty.
func NewSender(url, secret string) *Sender {
	if url == "" {
		return nil
	}
	return &Sender{url: url, secret: secret, delays: defaultRetryDelays}
}

// Emit delivers an event in the background with retries.
func (s *Sender) Emit(eventType string, data interface{}) {
	if s == nil || s.url == "" {
		return
	}
	event := NewEvent(eventType, data)
	go s.deliverWithRetry(event)
}

func (s *Sender) deliverWithRetry(event *Event) bool {
	for attempt, delay := range s.delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, s.url, s.secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", s.url,
				"event", event.Type,
				"event_id", event.ID,
				"attempt", attempt+1,
			)
			return true
		}
		slog.Warn("webhook delivery failed",
			"url", s.url,
			"event", event.Type,
			"event_id", event.ID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", s.url,
		"event", event.Type,
		"event_id", event.ID,
	)
	return false
}

// Notifier mirrors control notifications to the webhook endpoint.
type Notifier struct {
	Sender *Sender
}

// Notify emits a control.notification event. It never blocks on delivery.
func (n Notifier) Notify(_ context.Context, message string) {
	n.Sender.Emit(EventNotification, map[string]string{"message": message})
}
