package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/models"
)

// NotificationService writes user-facing notifications. Creation is
// fire-and-forget: failures are logged, never propagated to the engine.
type NotificationService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewNotificationService(db *gorm.DB, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		db:     db,
		logger: logger,
	}
}

// Create implements engine.Notifier.
func (n *NotificationService) Create(notice engine.Notice) {
	row := &models.Notification{
		UserID:      notice.UserID,
		Category:    notice.Category,
		Title:       notice.Title,
		Message:     notice.Message,
		ActionURL:   notice.ActionURL,
		ScheduleID:  notice.ScheduleID,
		ExecutionID: notice.ExecutionID,
	}

	if err := n.db.Create(row).Error; err != nil {
		n.logger.Error("Failed to create notification",
			zap.Uint("user_id", notice.UserID),
			zap.String("category", notice.Category),
			zap.Error(err))
		return
	}

	n.logger.Debug("Notification created",
		zap.Uint("user_id", notice.UserID),
		zap.String("category", notice.Category),
		zap.String("title", notice.Title))
}

// ListForUser returns a user's notifications, newest first.
func (n *NotificationService) ListForUser(userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := n.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var rows []models.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// MarkRead flags one of the user's notifications as read.
func (n *NotificationService) MarkRead(userID, notificationID uint) error {
	return n.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true).Error
}
