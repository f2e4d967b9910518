package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rolegate/internal/metrics"
	"golang.org/x/time/rate"
)

// Notifier reports operational events (setup runs, verifications, failures)
// to an out-of-band channel. Notifications are best effort: they must never
// affect the verification flow they describe.
type Notifier interface {
	Notify(ctx context.Context, content string)
}

type notifier struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewNotifier builds a webhook notifier. An empty URL disables it; a failure
// storm is throttled so it cannot flood the channel.
func NewNotifier(url string, m *metrics.Metrics) Notifier {
	return &notifier{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 5),
		metrics: m,
	}
}

func (n *notifier) Notify(ctx context.Context, content string) {
	if n.url == "" {
		return
	}
	if !n.limiter.Allow() {
		slog.Warn("webhook notification throttled")
		n.metrics.IncNotificationDropped()
		return
	}
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		slog.Warn("webhook payload marshal failed", "err", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("webhook request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		slog.Warn("webhook send failed", "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		slog.Warn("webhook rejected notification", "status", resp.StatusCode)
	}
}
