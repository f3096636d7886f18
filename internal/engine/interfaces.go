package engine

import (
	"context"
	"time"

	"github.com/draftmill/draftmill/internal/models"
)

// Generator produces post titles and bodies for a topic. Implementations are
// expected to respect context deadlines; the pipeline owns the per-call
// timeouts.
type Generator interface {
	GenerateTitle(ctx context.Context, topic string, template *models.Template) (title, prompt string, err error)
	GenerateContent(ctx context.Context, title string, template *models.Template) (body, prompt string, err error)
	// GenerateImage is best effort: it returns an empty URL when no image
	// could be produced and never fails the pipeline.
	GenerateImage(ctx context.Context, source, title string) string
}

// PublishResult is what a platform adapter reports back after a successful
// publish call.
type PublishResult struct {
	PlatformPostID string
	PublishedURL   string
}

// Publisher pushes a finished post to its target site.
type Publisher interface {
	Publish(ctx context.Context, post *models.BlogPost, site *models.Site) (*PublishResult, error)
}

// Notice is a user-facing notification request.
type Notice struct {
	UserID      uint
	Category    string
	Title       string
	Message     string
	ActionURL   string
	ScheduleID  *uint
	ExecutionID *uint
}

// Notifier delivers notices. Calls are fire-and-forget: implementations log
// delivery failures instead of returning them.
type Notifier interface {
	Create(n Notice)
}

// Allowance answers whether a user may generate content right now. A denial
// is reported as a *BillingError.
type Allowance interface {
	CanGenerate(ctx context.Context, userID uint) error
}

// Timer is the cancellation handle for a pending fire time.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock reads and timer registration so fire-time logic
// is testable without real waits.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns a Clock backed by the real time package.
func SystemClock() Clock { return systemClock{} }
