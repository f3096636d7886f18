package models

import (
	"time"

	"gorm.io/gorm"
)

// Frequency kinds supported by a schedule.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom" // cron expression in CronExpr
)

// Post status policies applied to generated posts.
const (
	PostStatusDraft         = "draft"
	PostStatusPendingReview = "pending_review"
	PostStatusPublish       = "publish"
)

// Schedule is a recurring content-generation job definition. The engine
// mutates LastRun, NextRun, RetryCount and (on auto-pause) IsActive; all
// other fields belong to the API layer.
type Schedule struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	SiteID     uint   `gorm:"not null;index" json:"site_id"`
	TemplateID uint   `gorm:"not null;index" json:"template_id"`
	Name       string `gorm:"size:200;not null" json:"name"`

	Frequency  string `gorm:"size:20;not null;default:'daily'" json:"frequency"`
	TimeOfDay  string `gorm:"size:5;not null;default:'09:00'" json:"time_of_day"` // HH:MM
	Timezone   string `gorm:"size:50;not null;default:'UTC'" json:"timezone"`
	DayOfWeek  *int   `json:"day_of_week"`  // 0=Monday..6=Sunday, weekly only
	DayOfMonth *int   `json:"day_of_month"` // 1-31, monthly only (clipped to 28)
	CronExpr   string `gorm:"size:100" json:"cron_expr"`

	Topics     StringArray `gorm:"type:text[]" json:"topics"`
	SkipDates  StringArray `gorm:"type:text[]" json:"skip_dates"` // YYYY-MM-DD
	PostStatus string      `gorm:"size:20;not null;default:'draft'" json:"post_status"`

	IsActive   bool       `gorm:"default:true;index" json:"is_active"`
	LastRun    *time.Time `json:"last_run"`
	NextRun    *time.Time `gorm:"index" json:"next_run"`
	RetryCount int        `gorm:"default:0" json:"retry_count"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Site     Site     `gorm:"foreignKey:SiteID" json:"site"`
	Template Template `gorm:"foreignKey:TemplateID" json:"template"`
}

// SkipsDate reports whether the given calendar date is in the skip set.
func (s *Schedule) SkipsDate(t time.Time) bool {
	day := t.Format("2006-01-02")
	for _, d := range s.SkipDates {
		if d == day {
			return true
		}
	}
	return false
}
