package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/models"
)

// Webhook pushes the finished post as JSON to a user-supplied endpoint. It
// is the escape hatch for platforms without a dedicated adapter.
type Webhook struct {
	logger *zap.Logger
	client *http.Client
}

type webhookConfig struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

type webhookPayload struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Excerpt  string `json:"excerpt"`
	ImageURL string `json:"image_url,omitempty"`
}

type webhookResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func NewWebhook(logger *zap.Logger) *Webhook {
	return &Webhook{
		logger: logger,
		client: &http.Client{Timeout: publishTimeout},
	}
}

func (w *Webhook) PlatformName() string { return models.PlatformWebhook }

func (w *Webhook) Publish(ctx context.Context, post *models.BlogPost, site *models.Site) (*engine.PublishResult, error) {
	var cfg webhookConfig
	if err := json.Unmarshal([]byte(site.Config), &cfg); err != nil {
		return nil, fmt.Errorf("invalid webhook config for site %s: %w", site.Name, err)
	}
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = site.URL
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no webhook URL configured for site %s", site.Name)
	}

	jsonBody, err := json.Marshal(webhookPayload{
		Title:    post.Title,
		Content:  post.Content,
		Excerpt:  post.Excerpt,
		ImageURL: post.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Secret != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("publish timed out after %s: %w", publishTimeout, err)
		}
		return nil, fmt.Errorf("failed to reach webhook: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("publish authentication failed (status %d)", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	// Body is optional; a bare 2xx is a successful publish.
	result := &engine.PublishResult{}
	var whResp webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&whResp); err == nil {
		result.PlatformPostID = whResp.ID
		result.PublishedURL = whResp.URL
	}

	return result, nil
}
