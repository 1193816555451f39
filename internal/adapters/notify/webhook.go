package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	perr "propwatch/internal/platform/errors"
	"propwatch/internal/platform/logger"
)

const webhookTimeout = 10 * time.Second

// Webhook POSTs the alert envelope as JSON to a fixed URL.
// Delivery is single attempt; a failed send surfaces as an error and the
// caller decides what to log. The receiving end owns retries and fan-out
type Webhook struct {
	url    string
	secret string
	http   *http.Client
	log    logger.Logger
}

// NewWebhook constructs a webhook dispatcher for url.
// secret, when non-empty, rides along as a bearer token
func NewWebhook(url, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		http:   &http.Client{Timeout: webhookTimeout},
		log:    *logger.Named("notify.webhook"),
	}
}

// Send implements Dispatcher
func (d *Webhook) Send(ctx context.Context, a Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "webhook encode alert %s", a.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "webhook build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "propwatch-notify")
	if d.secret != "" {
		req.Header.Set("Authorization", "Bearer "+d.secret)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "webhook post %s", d.url)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return perr.Unavailablef("webhook post %s: status %d", d.url, resp.StatusCode)
	}

	d.log.Debug().Str("alert_id", a.ID).Int("status", resp.StatusCode).Msg("alert delivered")
	return nil
}
