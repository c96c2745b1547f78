package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// NotifyClient pushes notifications to the external notifier service.
// Delivery is best effort: failures are logged and never bubble up into
// the workflow that triggered them.
type NotifyClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewNotifyClient(baseURL string, log *zap.Logger) *NotifyClient {
	return &NotifyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (c *NotifyClient) Send(ctx context.Context, event string, payload map[string]any) {
	if c == nil || c.baseURL == "" {
		return
	}

	body, err := json.Marshal(map[string]any{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		c.log.Warn("failed to encode notification", zap.String("event", event), zap.Error(err))
		return
	}

	url := fmt.Sprintf("%s/internal/notify", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		c.log.Warn("failed to build notification request", zap.String("event", event), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("notifier unavailable", zap.String("event", event), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("notifier rejected event",
			zap.String("event", event),
			zap.Int("status", resp.StatusCode),
		)
	}
}
