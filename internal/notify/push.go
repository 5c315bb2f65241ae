package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	devicedomain "school-management/backend/internal/device/domain"
)

const defaultPushTimeout = 15 * time.Second

// PushClient posts notifications to an HTTP push gateway that fans out to FCM/APNs.
type PushClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewPushClient returns a client for the gateway at baseURL.
func NewPushClient(apiKey, baseURL string) *PushClient {
	return &PushClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultPushTimeout},
	}
}

type pushRequest struct {
	Token    string            `json:"token"`
	Platform string            `json:"platform,omitempty"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

// Send delivers n to one device token.
func (c *PushClient) Send(ctx context.Context, token *devicedomain.Token, n Notification) error {
	if c.BaseURL == "" {
		return errors.New("push: gateway URL not configured")
	}
	raw, err := json.Marshal(pushRequest{
		Token:    token.PushToken,
		Platform: token.Platform,
		Title:    n.Title,
		Body:     n.Body,
		Data:     n.Data,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// TokenLister returns the push tokens registered for an account.
type TokenLister interface {
	ListByAccount(ctx context.Context, accountID string) ([]*devicedomain.Token, error)
}

// Sender delivers to a single device token.
type Sender interface {
	Send(ctx context.Context, token *devicedomain.Token, n Notification) error
}

// Deliverer is the consumer side of KafkaDispatcher: it resolves an account's devices and pushes to each.
type Deliverer struct {
	tokens TokenLister
	sender Sender
}

// NewDeliverer returns a Deliverer.
func NewDeliverer(tokens TokenLister, sender Sender) *Deliverer {
	return &Deliverer{tokens: tokens, sender: sender}
}

// Deliver pushes n to every device of its account and returns how many sends succeeded.
// A failing device does not stop delivery to the others; the error is only for the token lookup.
func (d *Deliverer) Deliver(ctx context.Context, n Notification) (int, error) {
	tokens, err := d.tokens.ListByAccount(ctx, n.AccountID)
	if err != nil {
		return 0, fmt.Errorf("list device tokens: %w", err)
	}
	sent := 0
	for _, t := range tokens {
		if err := d.sender.Send(ctx, t, n); err != nil {
			log.Printf("notify: push to device %s of account %s failed: %v", t.DeviceID, n.AccountID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
