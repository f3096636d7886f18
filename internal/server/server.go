package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/draftmill/draftmill/internal/config"
	"github.com/draftmill/draftmill/internal/engine"
	"github.com/draftmill/draftmill/internal/service"
	"github.com/draftmill/draftmill/internal/service/generate"
	"github.com/draftmill/draftmill/internal/service/publisher"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Scheduler     *engine.Scheduler
	Reconciler    *engine.Reconciler
	Notifications *service.NotificationService
	Auth          *service.AuthService
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	notifications := service.NewNotificationService(db, logger)
	billing := service.NewBillingService(db, logger, &cfg.Billing)
	generator := generate.NewService(&cfg.OpenAI, logger)
	auth := service.NewAuthService(logger, cfg.Auth.TOTPSecret)

	pubManager := publisher.NewManager(logger)
	if err := pubManager.Register(publisher.NewWordPress(logger)); err != nil {
		return nil, err
	}
	if err := pubManager.Register(publisher.NewWebhook(logger)); err != nil {
		return nil, err
	}

	// Wire the execution engine
	settings, err := parseEngineConfig(&cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	clock := engine.SystemClock()
	store := engine.NewGormStore(db)
	pipeline := engine.NewPipeline(store, logger, clock, generator, pubManager,
		notifications, billing, settings.pipeline)
	guard := engine.NewGuard(store, logger, notifications)
	scheduler := engine.NewScheduler(store, logger, clock, pipeline, guard, settings.manualTimeout)
	reconciler := engine.NewReconciler(scheduler, logger, settings.reconcileInterval)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:        cfg,
		DB:            db,
		Router:        router,
		Logger:        logger,
		Scheduler:     scheduler,
		Reconciler:    reconciler,
		Notifications: notifications,
		Auth:          auth,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

type engineSettings struct {
	pipeline          engine.PipelineConfig
	manualTimeout     time.Duration
	reconcileInterval time.Duration
}

func parseEngineConfig(cfg *config.EngineConfig) (engineSettings, error) {
	title, err := time.ParseDuration(cfg.TitleTimeout)
	if err != nil {
		return engineSettings{}, fmt.Errorf("title_timeout: %w", err)
	}
	content, err := time.ParseDuration(cfg.ContentTimeout)
	if err != nil {
		return engineSettings{}, fmt.Errorf("content_timeout: %w", err)
	}
	manual, err := time.ParseDuration(cfg.ManualRunTimeout)
	if err != nil {
		return engineSettings{}, fmt.Errorf("manual_run_timeout: %w", err)
	}
	reconcile, err := time.ParseDuration(cfg.ReconcileInterval)
	if err != nil {
		return engineSettings{}, fmt.Errorf("reconcile_interval: %w", err)
	}
	return engineSettings{
		pipeline:          engine.PipelineConfig{TitleTimeout: title, ContentTimeout: content},
		manualTimeout:     manual,
		reconcileInterval: reconcile,
	}, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		schedules := api.Group("/schedules")
		{
			schedules.GET("", s.handleListSchedules)
			schedules.GET("/:id/executions", s.handleListExecutions)

			mutating := schedules.Group("", s.Auth.Middleware())
			{
				mutating.POST("", s.handleCreateSchedule)
				mutating.POST("/:id/activate", s.handleActivateSchedule)
				mutating.POST("/:id/deactivate", s.handleDeactivateSchedule)
				mutating.POST("/:id/run", s.handleRunNow)
			}
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", s.handleListNotifications)
			notifications.POST("/:id/read", s.handleMarkNotificationRead)
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	// Rehydrate timers for active schedules before accepting traffic
	if err := s.Scheduler.ReloadActive(); err != nil {
		return fmt.Errorf("failed to reload active schedules: %w", err)
	}
	s.Reconciler.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Drop pending timers first; in-flight runs finish on their own
	s.Reconciler.Stop()
	s.Scheduler.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
