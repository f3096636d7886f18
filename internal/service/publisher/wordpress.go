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
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/models"
)

// publishTimeout bounds one publish HTTP call.
const publishTimeout = 30 * time.Second

// WordPress publishes via the WP REST API using an application password.
type WordPress struct {
	logger *zap.Logger
	client *http.Client
}

type wordpressConfig struct {
	Username    string `json:"username"`
	AppPassword string `json:"app_password"`
}

type wordpressPost struct {
	Title   string `json:"title"`
	Slug    string `json:"slug,omitempty"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt,omitempty"`
	Status  string `json:"status"`
}

type wordpressResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

func NewWordPress(logger *zap.Logger) *WordPress {
	return &WordPress{
		logger: logger,
		client: &http.Client{Timeout: publishTimeout},
	}
}

func (w *WordPress) PlatformName() string { return models.PlatformWordPress }

func (w *WordPress) Publish(ctx context.Context, post *models.BlogPost, site *models.Site) (*engine.PublishResult, error) {
	var cfg wordpressConfig
	if err := json.Unmarshal([]byte(site.Config), &cfg); err != nil {
		return nil, fmt.Errorf("invalid wordpress config for site %s: %w", site.Name, err)
	}
	if cfg.Username == "" || cfg.AppPassword == "" {
		return nil, fmt.Errorf("publish authentication not configured: missing application password for site %s", site.Name)
	}

	endpoint := strings.TrimRight(site.URL, "/") + "/wp-json/wp/v2/posts"

	jsonBody, err := json.Marshal(wordpressPost{
		Title:   post.Title,
		Slug:    post.Slug,
		Content: post.Content,
		Excerpt: post.Excerpt,
		Status:  "publish",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(cfg.Username, cfg.AppPassword)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, fmt.Errorf("publish timed out after %s: %w", publishTimeout, err)
		}
		return nil, fmt.Errorf("failed to reach site: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("publish authentication failed (status %d): %s", resp.StatusCode, string(body))
	case resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("wordpress API returned status %d: %s", resp.StatusCode, string(body))
	}

	var wpResp wordpressResponse
	if err := json.NewDecoder(resp.Body).Decode(&wpResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &engine.PublishResult{
		PlatformPostID: strconv.Itoa(wpResp.ID),
		PublishedURL:   wpResp.Link,
	}, nil
}
