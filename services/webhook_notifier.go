package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"phish-scoreboard/utils"
)

// RegistrationNotice is the payload posted to the automation webhook.
type RegistrationNotice struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Notifier announces new registrations to an external automation.
type Notifier interface {
	Enabled() bool
	NotifyRegistration(ctx context.Context, notice RegistrationNotice) error
}

// WebhookNotifier posts registrations to an n8n (or compatible) webhook.
// An empty URL disables it.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: utils.NewHTTPClient(timeout),
	}
}

func (n *WebhookNotifier) Enabled() bool {
	return n != nil && n.URL != ""
}

// NotifyRegistration posts notice once; there is no retry.
func (n *WebhookNotifier) NotifyRegistration(ctx context.Context, notice RegistrationNotice) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", uuid.NewString())

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(snippet))
	}

	log.Printf("[WEBHOOK] Triggered registration webhook for %s", notice.Email)
	return nil
}
