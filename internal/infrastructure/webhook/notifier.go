// Package webhook posts completion events downstream. Delivery is best
// effort: failures are logged with the document id and never surface to the
// pipeline.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Notifier struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New builds a notifier limited to maxPerSecond outbound calls so a large
// batch cannot flood the receiver. A url of "" disables delivery.
func New(url string, maxPerSecond float64) *Notifier {
	if maxPerSecond <= 0 {
		maxPerSecond = 10
	}
	return &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(maxPerSecond), int(maxPerSecond)),
	}
}

type event struct {
	Event          string `json:"event"`
	DocumentID     string `json:"document_id"`
	OrganizationID string `json:"organization_id"`
}

func (n *Notifier) Notify(ctx context.Context, documentID, orgID string) {
	if n.url == "" {
		return
	}
	if err := n.limiter.Wait(ctx); err != nil {
		slog.Warn("webhook_rate_wait_aborted", "document_id", documentID, "error", err)
		return
	}

	payload, err := json.Marshal(event{
		Event:          "document.processed",
		DocumentID:     documentID,
		OrganizationID: orgID,
	})
	if err != nil {
		slog.Warn("webhook_marshal_failed", "document_id", documentID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		slog.Warn("webhook_request_failed", "document_id", documentID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		slog.Warn("webhook_delivery_failed", "document_id", documentID, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 300 {
		slog.Warn("webhook_rejected", "document_id", documentID, "status", resp.StatusCode)
	}
}
