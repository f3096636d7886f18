package models

import (
	"time"
)

// Notification categories produced by the engine and billing callers.
const (
	NotificationGenerationFailed = "generation_failed"
	NotificationPublishFailed    = "publish_failed"
	NotificationSchedulePaused   = "schedule_paused"
	NotificationBilling          = "billing"
)

// Notification is a user-facing side effect. The engine only ever creates
// rows; reading and marking them is the API layer's business.
type Notification struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Category    string `gorm:"size:50;not null;index" json:"category"`
	Title       string `gorm:"size:500;not null" json:"title"`
	Message     string `gorm:"type:text;not null" json:"message"`
	ActionURL   string `gorm:"size:1000" json:"action_url"`
	Read        bool   `gorm:"default:false;index" json:"read"`
	ScheduleID  *uint  `gorm:"index" json:"schedule_id"`
	ExecutionID *uint  `gorm:"index" json:"execution_id"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
