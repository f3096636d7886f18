package engine

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/draftmill/draftmill/internal/models"
)

// Store is the engine's persistence seam. The production implementation is
// GormStore; tests substitute an in-memory fake.
type Store interface {
	CreateExecution(rec *models.ExecutionRecord) error
	SaveExecution(rec *models.ExecutionRecord) error
	CreatePost(post *models.BlogPost) error
	SavePost(post *models.BlogPost) error

	// GetSchedule loads a schedule with its Site and Template.
	GetSchedule(id uint) (*models.Schedule, error)
	// SaveSchedule persists the schedule row only, not its associations.
	SaveSchedule(sched *models.Schedule) error
	UpdateNextRun(scheduleID uint, next *time.Time) error
	ActiveSchedules() ([]models.Schedule, error)
}

// GormStore implements Store on the shared gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateExecution(rec *models.ExecutionRecord) error {
	return s.db.Create(rec).Error
}

func (s *GormStore) SaveExecution(rec *models.ExecutionRecord) error {
	return s.db.Omit(clause.Associations).Save(rec).Error
}

func (s *GormStore) CreatePost(post *models.BlogPost) error {
	return s.db.Create(post).Error
}

func (s *GormStore) SavePost(post *models.BlogPost) error {
	return s.db.Omit(clause.Associations).Save(post).Error
}

func (s *GormStore) GetSchedule(id uint) (*models.Schedule, error) {
	var sched models.Schedule
	if err := s.db.Preload("Site").Preload("Template").First(&sched, id).Error; err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *GormStore) SaveSchedule(sched *models.Schedule) error {
	return s.db.Omit(clause.Associations).Save(sched).Error
}

func (s *GormStore) UpdateNextRun(scheduleID uint, next *time.Time) error {
	return s.db.Model(&models.Schedule{}).Where("id = ?", scheduleID).
		Update("next_run", next).Error
}

func (s *GormStore) ActiveSchedules() ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := s.db.Where("is_active = ?", true).Find(&schedules).Error
	return schedules, err
}
