// Package netx holds outbound HTTP helpers.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const AlchemyTokenHeader = "X-Alchemy-Token"

// Notifier registers wallet addresses with an address-activity webhook
// (Alchemy Notify API shape). Calls are throttled by a shared limiter.
type Notifier struct {
	url       string
	webhookID string
	token     string
	client    *http.Client
	limiter   *rate.Limiter
}

type updateAddresses struct {
	WebhookID         string   `json:"webhook_id"`
	AddressesToAdd    []string `json:"addresses_to_add"`
	AddressesToRemove []string `json:"addresses_to_remove"`
}

// NewNotifier returns a notifier allowing rps calls per second. A
// non-positive rps disables throttling.
func NewNotifier(url, webhookID, token string, rps float64) *Notifier {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &Notifier{
		url:       url,
		webhookID: webhookID,
		token:     token,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.url != ""
}

// AddAddress adds address to the webhook's watch list.
func (n *Notifier) AddAddress(ctx context.Context, address string) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(updateAddresses{
		WebhookID:         n.webhookID,
		AddressesToAdd:    []string{address},
		AddressesToRemove: []string{},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(AlchemyTokenHeader, n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notify failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
