package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/draftmill/draftmill/internal/models"
)

// fakeClock drives timers by hand so scheduler tests never sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// pending returns the not-yet-fired, not-stopped timers.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fireNext advances the clock to the earliest pending timer and runs it
// synchronously. Returns false when nothing is pending.
func (c *fakeClock) fireNext() bool {
	c.mu.Lock()
	var next *fakeTimer
	for _, t := range c.timers {
		if t.stopped {
			continue
		}
		if next == nil || t.at.Before(next.at) {
			next = t
		}
	}
	if next == nil {
		c.mu.Unlock()
		return false
	}
	next.stopped = true
	if next.at.After(c.now) {
		c.now = next.at
	}
	fn := next.fn
	c.mu.Unlock()

	fn()
	return true
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu         sync.Mutex
	schedules  map[uint]*models.Schedule
	executions []*models.ExecutionRecord
	posts      []*models.BlogPost
	execSeq    uint
	postSeq    uint
}

func newFakeStore(schedules ...*models.Schedule) *fakeStore {
	s := &fakeStore{schedules: make(map[uint]*models.Schedule)}
	for _, sched := range schedules {
		s.schedules[sched.ID] = sched
	}
	return s
}

func (s *fakeStore) CreateExecution(rec *models.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execSeq++
	rec.ID = s.execSeq
	s.executions = append(s.executions, rec)
	return nil
}

func (s *fakeStore) SaveExecution(rec *models.ExecutionRecord) error { return nil }

func (s *fakeStore) CreatePost(post *models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postSeq++
	post.ID = s.postSeq
	s.posts = append(s.posts, post)
	return nil
}

func (s *fakeStore) SavePost(post *models.BlogPost) error { return nil }

func (s *fakeStore) GetSchedule(id uint) (*models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[id]
	if !ok {
		return nil, fmt.Errorf("schedule %d not found", id)
	}
	return sched, nil
}

func (s *fakeStore) SaveSchedule(sched *models.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sched.ID] = sched
	return nil
}

func (s *fakeStore) UpdateNextRun(scheduleID uint, next *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched, ok := s.schedules[scheduleID]; ok {
		sched.NextRun = next
	}
	return nil
}

func (s *fakeStore) ActiveSchedules() ([]models.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id, sched := range s.schedules {
		if sched.IsActive {
			ids = append(ids, int(id))
		}
	}
	sort.Ints(ids)
	var out []models.Schedule
	for _, id := range ids {
		out = append(out, *s.schedules[uint(id)])
	}
	return out, nil
}

func (s *fakeStore) executionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.executions)
}

// fakeGenerator returns canned output, or the configured errors.
type fakeGenerator struct {
	titleErr   error
	contentErr error
	imageURL   string
}

func (g *fakeGenerator) GenerateTitle(ctx context.Context, topic string, template *models.Template) (string, string, error) {
	if g.titleErr != nil {
		return "", "", g.titleErr
	}
	return "The Future of " + topic, "title prompt", nil
}

func (g *fakeGenerator) GenerateContent(ctx context.Context, title string, template *models.Template) (string, string, error) {
	if g.contentErr != nil {
		return "", "", g.contentErr
	}
	return "## Introduction\n\nAn article about " + title + ".", "content prompt", nil
}

func (g *fakeGenerator) GenerateImage(ctx context.Context, source, title string) string {
	return g.imageURL
}

// fakePublisher succeeds unless err is set.
type fakePublisher struct {
	err   error
	calls int
}

func (p *fakePublisher) Publish(ctx context.Context, post *models.BlogPost, site *models.Site) (*PublishResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &PublishResult{PlatformPostID: "42", PublishedURL: "https://example.com/p/42"}, nil
}

// fakeNotifier collects notices.
type fakeNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *fakeNotifier) Create(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) byCategory(category string) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notice
	for _, notice := range n.notices {
		if notice.Category == category {
			out = append(out, notice)
		}
	}
	return out
}

// fakeAllowance denies when err is set.
type fakeAllowance struct {
	err error
}

func (a *fakeAllowance) CanGenerate(ctx context.Context, userID uint) error { return a.err }

func intPtr(v int) *int { return &v }

func testSchedule() *models.Schedule {
	return &models.Schedule{
		ID:         1,
		UserID:     7,
		SiteID:     3,
		TemplateID: 5,
		Name:       "Morning post",
		Frequency:  models.FrequencyDaily,
		TimeOfDay:  "09:00",
		Timezone:   "UTC",
		Topics:     models.StringArray{"go concurrency"},
		PostStatus: models.PostStatusDraft,
		IsActive:   true,
		Site:       models.Site{ID: 3, Name: "My Blog", Platform: models.PlatformWordPress, Enabled: true},
		Template:   models.Template{ID: 5, Tone: "casual", WordCount: 700},
	}
}
