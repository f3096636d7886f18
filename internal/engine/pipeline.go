package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/models"
	"github.com/draftmill/draftmill/pkg/util"
)

// fallbackTopic is used when a schedule has no topic ideas configured.
const fallbackTopic = "content creation"

// PipelineConfig bounds the external generation calls.
type PipelineConfig struct {
	TitleTimeout   time.Duration
	ContentTimeout time.Duration
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.TitleTimeout <= 0 {
		c.TitleTimeout = 30 * time.Second
	}
	if c.ContentTimeout <= 0 {
		c.ContentTimeout = 60 * time.Second
	}
	return c
}

// Result is the outcome of one pipeline invocation. Execution is always
// non-nil; Post is set once a draft row exists, whether or not the run as a
// whole succeeded.
type Result struct {
	Execution *models.ExecutionRecord
	Post      *models.BlogPost
	Err       error
	Category  Category
}

// Pipeline drives one schedule through topic pick, generation, post creation
// and optional publishing. Every invocation produces exactly one
// ExecutionRecord regardless of outcome.
type Pipeline struct {
	store     Store
	logger    *zap.Logger
	clock     Clock
	generator Generator
	publisher Publisher
	notifier  Notifier
	allowance Allowance
	cfg       PipelineConfig
}

func NewPipeline(store Store, logger *zap.Logger, clock Clock, generator Generator,
	publisher Publisher, notifier Notifier, allowance Allowance, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		store:     store,
		logger:    logger,
		clock:     clock,
		generator: generator,
		publisher: publisher,
		notifier:  notifier,
		allowance: allowance,
		cfg:       cfg.withDefaults(),
	}
}

// Run executes the pipeline once for the given schedule. The schedule must
// have its Site and Template associations loaded. Run never touches NextRun;
// rescheduling and retry accounting belong to the Scheduler and Guard.
func (p *Pipeline) Run(ctx context.Context, sched *models.Schedule, kind string) *Result {
	started := p.clock.Now()

	// The record exists before any work happens so a crash mid-run still
	// leaves an observable attempt.
	record := &models.ExecutionRecord{
		ScheduleID: sched.ID,
		Kind:       kind,
		StartedAt:  started,
	}
	if err := p.store.CreateExecution(record); err != nil {
		p.logger.Error("Failed to create execution record",
			zap.Uint("schedule_id", sched.ID),
			zap.Error(err))
	}

	if err := p.allowance.CanGenerate(ctx, sched.UserID); err != nil {
		return p.fail(record, nil, err)
	}

	topic := fallbackTopic
	if len(sched.Topics) > 0 {
		topic = sched.Topics[rand.Intn(len(sched.Topics))]
	}

	titleCtx, cancel := context.WithTimeout(ctx, p.cfg.TitleTimeout)
	title, _, err := p.generator.GenerateTitle(titleCtx, topic, &sched.Template)
	cancel()
	if err != nil {
		return p.fail(record, nil, &GenerationError{Step: "title", Err: err})
	}

	contentCtx, cancel := context.WithTimeout(ctx, p.cfg.ContentTimeout)
	body, _, err := p.generator.GenerateContent(contentCtx, title, &sched.Template)
	cancel()
	if err != nil {
		return p.fail(record, nil, &GenerationError{Step: "content", Err: err})
	}

	var imageURL string
	if sched.Template.ImageSource != "" && sched.Template.ImageSource != models.ImageSourceNone {
		imageURL = p.generator.GenerateImage(ctx, sched.Template.ImageSource, title)
	}

	body = util.FormatMarkdown(body)
	post := &models.BlogPost{
		UserID:     sched.UserID,
		SiteID:     sched.SiteID,
		ScheduleID: &sched.ID,
		Title:      title,
		Slug:       util.GenerateSlug(title),
		Content:    body,
		Excerpt:    util.Excerpt(body, 300),
		Status:     models.PostStatusDraft,
		ImageURL:   imageURL,
	}
	if err := p.store.CreatePost(post); err != nil {
		return p.fail(record, nil, fmt.Errorf("failed to save post: %w", err))
	}
	record.PostID = &post.ID

	switch sched.PostStatus {
	case models.PostStatusPendingReview:
		post.Status = models.PostStatusPendingReview
		if err := p.store.SavePost(post); err != nil {
			p.logger.Error("Failed to update post status", zap.Uint("post_id", post.ID), zap.Error(err))
		}

	case models.PostStatusPublish:
		pubResult, err := p.publisher.Publish(ctx, post, &sched.Site)
		if err != nil {
			// The draft survives a failed publish. Tell the user where it
			// went, separately from the failure accounting.
			p.notifier.Create(Notice{
				UserID:      sched.UserID,
				Category:    models.NotificationPublishFailed,
				Title:       "Publishing failed, post saved as draft",
				Message:     fmt.Sprintf("\"%s\" was generated but could not be published to %s. It is saved as a draft.", post.Title, sched.Site.Name),
				ActionURL:   fmt.Sprintf("/posts/%d", post.ID),
				ScheduleID:  &sched.ID,
				ExecutionID: &record.ID,
			})
			return p.fail(record, post, &PublishError{Platform: sched.Site.Platform, Err: err})
		}
		now := p.clock.Now()
		post.Status = models.PostPublished
		post.PlatformPostID = pubResult.PlatformPostID
		post.PublishedURL = pubResult.PublishedURL
		post.PublishedAt = &now
		if err := p.store.SavePost(post); err != nil {
			p.logger.Error("Failed to mark post published", zap.Uint("post_id", post.ID), zap.Error(err))
		}
	}

	record.Success = true
	record.Duration = p.clock.Now().Sub(started)
	if err := p.store.SaveExecution(record); err != nil {
		p.logger.Error("Failed to update execution record", zap.Uint("execution_id", record.ID), zap.Error(err))
	}

	p.logger.Info("Pipeline run succeeded",
		zap.Uint("schedule_id", sched.ID),
		zap.String("kind", kind),
		zap.Uint("post_id", post.ID),
		zap.Duration("duration", record.Duration))

	return &Result{Execution: record, Post: post}
}

func (p *Pipeline) fail(record *models.ExecutionRecord, post *models.BlogPost, err error) *Result {
	category := Classify(err.Error())

	record.Success = false
	record.ErrorMessage = err.Error()
	record.ErrorCategory = string(category)
	record.Duration = p.clock.Now().Sub(record.StartedAt)
	if saveErr := p.store.SaveExecution(record); saveErr != nil {
		p.logger.Error("Failed to update execution record",
			zap.Uint("execution_id", record.ID),
			zap.Error(saveErr))
	}

	p.logger.Warn("Pipeline run failed",
		zap.Uint("schedule_id", record.ScheduleID),
		zap.String("kind", record.Kind),
		zap.String("category", string(category)),
		zap.Error(err))

	return &Result{Execution: record, Post: post, Err: err, Category: category}
}
