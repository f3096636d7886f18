package models

import (
	"time"

	"gorm.io/gorm"
)

// Supported publish platforms.
const (
	PlatformWordPress = "wordpress"
	PlatformWebhook   = "webhook"
)

// Site is a publish target owned by a user. Config holds platform-specific
// settings (endpoint, credentials) as a JSON document.
type Site struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	Name     string `gorm:"not null;size:200" json:"name"`
	Platform string `gorm:"size:50;not null" json:"platform"`
	URL      string `gorm:"size:1000" json:"url"`
	Config   string `gorm:"type:jsonb" json:"config"`
	Enabled  bool   `gorm:"default:true" json:"enabled"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
