package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/draftmill/draftmill/internal/config"
	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/models"
)

// BillingService enforces the per-plan generation allowance. It counts the
// user's generated posts in the current calendar month against the
// configured limit.
type BillingService struct {
	db     *gorm.DB
	logger *zap.Logger
	limit  int
}

func NewBillingService(db *gorm.DB, logger *zap.Logger, cfg *config.BillingConfig) *BillingService {
	return &BillingService{
		db:     db,
		logger: logger,
		limit:  cfg.MonthlyPostLimit,
	}
}

// CanGenerate implements engine.Allowance. A denial is an *engine.BillingError
// so the guard can route it to a billing notification instead of the failure
// counter.
func (b *BillingService) CanGenerate(ctx context.Context, userID uint) error {
	if b.limit <= 0 {
		return nil
	}

	monthStart := startOfMonth(time.Now().UTC())

	var count int64
	err := b.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("user_id = ? AND created_at >= ?", userID, monthStart).
		Count(&count).Error
	if err != nil {
		// Do not block generation on an accounting query failure.
		b.logger.Error("Failed to count monthly posts",
			zap.Uint("user_id", userID),
			zap.Error(err))
		return nil
	}

	if count >= int64(b.limit) {
		return &engine.BillingError{
			Reason: fmt.Sprintf("You have used all %d posts included in your plan this month. Upgrade your plan to keep generating.", b.limit),
		}
	}
	return nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
