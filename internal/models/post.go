package models

import (
	"time"

	"gorm.io/gorm"
)

// BlogPost statuses. A post is created in draft and only moves to published
// after a successful publish call.
const (
	PostPublished = "published"
)

type BlogPost struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	SiteID     uint   `gorm:"not null;index" json:"site_id"`
	ScheduleID *uint  `gorm:"index" json:"schedule_id"`
	Title      string `gorm:"size:500;not null" json:"title"`
	Slug       string `gorm:"size:200" json:"slug"`
	Content    string `gorm:"type:text" json:"content"` // markdown
	Excerpt    string `gorm:"size:500" json:"excerpt"`
	Status     string `gorm:"size:20;not null;default:'draft'" json:"status"`
	ImageURL   string `gorm:"size:1000" json:"image_url"`

	PlatformPostID string     `gorm:"size:255" json:"platform_post_id"`
	PublishedURL   string     `gorm:"size:1000" json:"published_url"`
	PublishedAt    *time.Time `json:"published_at"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Site Site `gorm:"foreignKey:SiteID" json:"site"`
}
