package models

import (
	"time"
)

// Execution kinds.
const (
	ExecutionScheduled = "scheduled"
	ExecutionManual    = "manual"
)

// ExecutionRecord is the durable audit row for one pipeline attempt. It is
// created at the start of every invocation and updated in place once the
// outcome is known.
type ExecutionRecord struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	ScheduleID    uint          `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"schedule_id"`
	Kind          string        `gorm:"size:20;not null;default:'scheduled'" json:"kind"`
	StartedAt     time.Time     `gorm:"not null;index" json:"started_at"`
	Duration      time.Duration `json:"duration"`
	Success       bool          `gorm:"default:false" json:"success"`
	ErrorMessage  string        `gorm:"type:text" json:"error_message"`
	ErrorCategory string        `gorm:"size:50" json:"error_category"`
	PostID        *uint         `gorm:"index" json:"post_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Schedule Schedule  `gorm:"foreignKey:ScheduleID" json:"-"`
	Post     *BlogPost `gorm:"foreignKey:PostID" json:"post,omitempty"`
}
