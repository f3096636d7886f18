package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/models"
)

type createScheduleRequest struct {
	UserID     uint     `json:"user_id" binding:"required"`
	SiteID     uint     `json:"site_id" binding:"required"`
	TemplateID uint     `json:"template_id" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	Frequency  string   `json:"frequency"`
	TimeOfDay  string   `json:"time_of_day"`
	Timezone   string   `json:"timezone"`
	DayOfWeek  *int     `json:"day_of_week"`
	DayOfMonth *int     `json:"day_of_month"`
	CronExpr   string   `json:"cron_expr"`
	Topics     []string `json:"topics"`
	SkipDates  []string `json:"skip_dates"`
	PostStatus string   `json:"post_status"`
	Active     *bool    `json:"active"`
}

func (s *Server) handleCreateSchedule(c *gin.Context) {
	var req createScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched := &models.Schedule{
		UserID:     req.UserID,
		SiteID:     req.SiteID,
		TemplateID: req.TemplateID,
		Name:       req.Name,
		Frequency:  defaultString(req.Frequency, models.FrequencyDaily),
		TimeOfDay:  defaultString(req.TimeOfDay, "09:00"),
		Timezone:   defaultString(req.Timezone, "UTC"),
		DayOfWeek:  req.DayOfWeek,
		DayOfMonth: req.DayOfMonth,
		CronExpr:   req.CronExpr,
		Topics:     models.StringArray(req.Topics),
		SkipDates:  models.StringArray(req.SkipDates),
		PostStatus: defaultString(req.PostStatus, models.PostStatusDraft),
		IsActive:   false,
	}

	switch sched.Frequency {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyCustom:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown frequency " + sched.Frequency})
		return
	}

	if err := s.DB.Create(sched).Error; err != nil {
		s.Logger.Error("Failed to create schedule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create schedule"})
		return
	}

	if req.Active == nil || *req.Active {
		if err := s.Scheduler.Activate(sched); err != nil {
			// The schedule exists but could not be armed; surface why
			c.JSON(http.StatusBadRequest, gin.H{
				"schedule": sched,
				"error":    err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"schedule": sched})
}

func (s *Server) handleListSchedules(c *gin.Context) {
	query := s.DB.Preload("Site").Preload("Template")
	if userID, ok := queryUint(c, "user_id"); ok {
		query = query.Where("user_id = ?", userID)
	}

	var schedules []models.Schedule
	if err := query.Order("id").Find(&schedules).Error; err != nil {
		s.Logger.Error("Failed to list schedules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schedules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

func (s *Server) handleActivateSchedule(c *gin.Context) {
	sched, ok := s.loadSchedule(c)
	if !ok {
		return
	}

	if err := s.Scheduler.Activate(sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func (s *Server) handleDeactivateSchedule(c *gin.Context) {
	sched, ok := s.loadSchedule(c)
	if !ok {
		return
	}

	if err := s.Scheduler.Deactivate(sched); err != nil {
		s.Logger.Error("Failed to deactivate schedule", zap.Uint("schedule_id", sched.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": sched})
}

func (s *Server) handleRunNow(c *gin.Context) {
	sched, ok := s.loadSchedule(c)
	if !ok {
		return
	}

	record, err := s.Scheduler.RunNow(c.Request.Context(), sched.ID)
	if err != nil {
		// The attempt is recorded either way; report it with the failure
		c.JSON(http.StatusOK, gin.H{"execution": record, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"execution": record})
}

func (s *Server) handleListExecutions(c *gin.Context) {
	sched, ok := s.loadSchedule(c)
	if !ok {
		return
	}

	var executions []models.ExecutionRecord
	err := s.DB.Where("schedule_id = ?", sched.ID).
		Order("started_at DESC").Limit(50).Find(&executions).Error
	if err != nil {
		s.Logger.Error("Failed to list executions", zap.Uint("schedule_id", sched.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list executions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"executions": executions})
}

func (s *Server) handleListNotifications(c *gin.Context) {
	userID, ok := queryUint(c, "user_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	unreadOnly := c.Query("unread") == "true"
	rows, err := s.Notifications.ListForUser(userID, unreadOnly, 50)
	if err != nil {
		s.Logger.Error("Failed to list notifications", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": rows})
}

func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	userID, ok := queryUint(c, "user_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := s.Notifications.MarkRead(userID, uint(id)); err != nil {
		s.Logger.Error("Failed to mark notification read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) loadSchedule(c *gin.Context) (*models.Schedule, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return nil, false
	}

	var sched models.Schedule
	if err := s.DB.First(&sched, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return nil, false
	}
	return &sched, true
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func queryUint(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
