package models

import (
	"time"

	"gorm.io/gorm"
)

// Image source options for a template.
const (
	ImageSourceNone   = "none"
	ImageSourceOpenAI = "openai"
)

// Template captures the content-generation settings a schedule runs with.
type Template struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       uint   `gorm:"not null;index" json:"user_id"`
	Name         string `gorm:"size:200;not null" json:"name"`
	Tone         string `gorm:"size:50;default:'professional'" json:"tone"`
	WordCount    int    `gorm:"default:800" json:"word_count"`
	ImageSource  string `gorm:"size:20;default:'none'" json:"image_source"`
	SystemPrompt string `gorm:"type:text" json:"system_prompt"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}
