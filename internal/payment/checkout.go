// Package payment is the narrow adapter to the external payment
// processor.  The booking engine only ever asks it to create a hosted
// checkout session for a gross amount with a transfer instruction for the
// host's net payout; everything else (webhooks aside) is processor-side.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SessionParams describes one hosted checkout session.  Amounts are minor
// units.  PayoutDestination is the host's connected processor account;
// PayoutAmountCents is the net amount transferred to it after the
// platform keeps its commission and the processor its fees.
type SessionParams struct {
	AmountCents       int64             `json:"amount_minor_units"`
	Currency          string            `json:"currency"`
	PayoutDestination string            `json:"payout_destination"`
	PayoutAmountCents int64             `json:"payout_amount_minor_units"`
	SuccessURL        string            `json:"success_url"`
	CancelURL         string            `json:"cancel_url"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Session is the processor's handle for a created checkout session.
type Session struct {
	SessionID  string `json:"id"`
	SessionURL string `json:"url"`
}

// Client creates hosted checkout sessions.  The booking service calls it
// only after its own transaction has committed, since this is an external
// network call; failures are reported to the caller without rolling the
// booking back.
type Client interface {
	CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error)
}

// HostedClient talks JSON over HTTP to the processor's checkout API.
type HostedClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHostedClient returns a client for the given API base URL and secret
// key.  A 10 second timeout bounds the post-commit call.
func NewHostedClient(baseURL, apiKey string) *HostedClient {
	return &HostedClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateCheckoutSession posts the session parameters and decodes the
// processor's session id and hosted URL.
func (c *HostedClient) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("checkout session: processor returned %d: %s", resp.StatusCode, msg)
	}
	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, err
	}
	if s.SessionID == "" {
		return nil, fmt.Errorf("checkout session: processor response missing session id")
	}
	return &s, nil
}
