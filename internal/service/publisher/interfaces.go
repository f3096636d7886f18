package publisher

import (
	"context"

	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/models"
)

// Adapter publishes posts to one platform kind (wordpress, webhook, ...).
// Implementations read their platform-specific settings from the site's
// Config JSON document.
type Adapter interface {
	PlatformName() string
	Publish(ctx context.Context, post *models.BlogPost, site *models.Site) (*engine.PublishResult, error)
}
