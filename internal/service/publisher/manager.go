package publisher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/models"
)

// Manager routes publish calls to the adapter registered for the target
// site's platform. It implements engine.Publisher.
type Manager struct {
	adapters map[string]Adapter
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		adapters: make(map[string]Adapter),
		logger:   logger,
	}
}

func (m *Manager) Register(adapter Adapter) error {
	name := adapter.PlatformName()
	if _, exists := m.adapters[name]; exists {
		return fmt.Errorf("adapter for platform %s already registered", name)
	}

	m.adapters[name] = adapter
	m.logger.Info("Publish adapter registered", zap.String("platform", name))
	return nil
}

func (m *Manager) Publish(ctx context.Context, post *models.BlogPost, site *models.Site) (*engine.PublishResult, error) {
	if !site.Enabled {
		return nil, fmt.Errorf("site %s is disabled", site.Name)
	}

	adapter, exists := m.adapters[site.Platform]
	if !exists {
		return nil, fmt.Errorf("no publish adapter for platform %s", site.Platform)
	}

	m.logger.Info("Publishing post",
		zap.Uint("post_id", post.ID),
		zap.String("platform", site.Platform),
		zap.String("site", site.Name))

	result, err := adapter.Publish(ctx, post, site)
	if err != nil {
		m.logger.Error("Publish failed",
			zap.Uint("post_id", post.ID),
			zap.String("platform", site.Platform),
			zap.Error(err))
		return nil, err
	}

	m.logger.Info("Post published",
		zap.Uint("post_id", post.ID),
		zap.String("platform", site.Platform),
		zap.String("url", result.PublishedURL))
	return result, nil
}
