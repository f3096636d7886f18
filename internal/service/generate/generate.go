package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/draftmill/draftmill/internal/config"
	"github.com/draftmill/draftmill/internal/models"
)

// Service generates titles, bodies and featured images through the OpenAI
// API. Call deadlines come from the caller's context; the pipeline owns the
// per-step timeouts.
type Service struct {
	config *config.OpenAIConfig
	logger *zap.Logger
	client *http.Client
}

func NewService(cfg *config.OpenAIConfig, logger *zap.Logger) *Service {
	return &Service{
		config: cfg,
		logger: logger,
		client: &http.Client{},
	}
}

// GenerateTitle produces a single post title for a topic. The prompt that
// was sent is returned alongside for audit purposes.
func (s *Service) GenerateTitle(ctx context.Context, topic string, template *models.Template) (string, string, error) {
	prompt := titlePrompt(topic, template)

	out, err := s.chat(ctx, template.SystemPrompt, prompt, 80)
	if err != nil {
		return "", prompt, err
	}

	title := strings.Trim(strings.TrimSpace(out), "\"")
	if title == "" {
		return "", prompt, fmt.Errorf("empty completion for title")
	}
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}

	return title, prompt, nil
}

// GenerateContent produces the markdown body for a title.
func (s *Service) GenerateContent(ctx context.Context, title string, template *models.Template) (string, string, error) {
	prompt := contentPrompt(title, template)

	// Rough budget: a token is ~0.75 words.
	maxTokens := template.WordCount * 2
	if maxTokens < 600 {
		maxTokens = 600
	}

	out, err := s.chat(ctx, template.SystemPrompt, prompt, maxTokens)
	if err != nil {
		return "", prompt, err
	}
	if strings.TrimSpace(out) == "" {
		return "", prompt, fmt.Errorf("empty completion for content")
	}

	return out, prompt, nil
}

// GenerateImage returns a hosted image URL for the post, or an empty string
// when no image could be produced. It never fails the caller.
func (s *Service) GenerateImage(ctx context.Context, source, title string) string {
	if source != models.ImageSourceOpenAI {
		return ""
	}

	url, err := s.image(ctx, fmt.Sprintf("A clean, professional blog header illustration for an article titled %q. No text in the image.", title))
	if err != nil {
		s.logger.Warn("Image generation failed, continuing without image",
			zap.String("title", title),
			zap.Error(err))
		return ""
	}
	return url
}

func titlePrompt(topic string, template *models.Template) string {
	return fmt.Sprintf(
		"Write one compelling blog post title about %q in a %s tone. Return only the title, with no quotes and no numbering.",
		topic, toneOrDefault(template))
}

func contentPrompt(title string, template *models.Template) string {
	return fmt.Sprintf(
		"Write a blog post titled %q in a %s tone, around %d words. Use markdown with ## section headings. Do not repeat the title as a heading.",
		title, toneOrDefault(template), wordCountOrDefault(template))
}

func toneOrDefault(template *models.Template) string {
	if template == nil || template.Tone == "" {
		return "professional"
	}
	return template.Tone
}

func wordCountOrDefault(template *models.Template) int {
	if template == nil || template.WordCount <= 0 {
		return 800
	}
	return template.WordCount
}
