package engine

import "strings"

// Category labels a failure for notifications and reporting.
type Category string

const (
	CategoryAPIRateLimit      Category = "api_rate_limit"
	CategoryAPIAuth           Category = "api_auth"
	CategoryAPIQuota          Category = "api_quota"
	CategoryAPITimeout        Category = "api_timeout"
	CategoryPublishAuth       Category = "publish_auth"
	CategoryPublishConnection Category = "publish_connection"
	CategoryPublishTimeout    Category = "publish_timeout"
	CategoryContentError      Category = "content_error"
	CategoryImageError        Category = "image_error"
	CategoryConfigError       Category = "config_error"
	CategoryUnknown           Category = "unknown"
)

// CategoryInfo carries the notification copy and the transience flag for a
// category. Transient failures are expected to clear up on the schedule's
// next tick without user action.
type CategoryInfo struct {
	Title     string
	Guidance  string
	Transient bool
}

var categoryInfo = map[Category]CategoryInfo{
	CategoryAPIRateLimit: {
		Title:     "AI service rate limited",
		Guidance:  "The AI provider is throttling requests. The next scheduled run will try again automatically.",
		Transient: true,
	},
	CategoryAPIAuth: {
		Title:     "AI service authentication failed",
		Guidance:  "Your AI provider API key was rejected. Update the key in your account settings.",
		Transient: false,
	},
	CategoryAPIQuota: {
		Title:     "AI quota exhausted",
		Guidance:  "Your AI provider quota is used up. Review your provider plan or billing.",
		Transient: false,
	},
	CategoryAPITimeout: {
		Title:     "AI request timed out",
		Guidance:  "The AI provider took too long to respond. The next scheduled run will try again automatically.",
		Transient: true,
	},
	CategoryPublishAuth: {
		Title:     "Site authentication failed",
		Guidance:  "Your site rejected the publish credentials. Reconnect the site from its settings page.",
		Transient: false,
	},
	CategoryPublishConnection: {
		Title:     "Could not reach your site",
		Guidance:  "The site did not accept a connection. Check that it is online and its URL is correct.",
		Transient: true,
	},
	CategoryPublishTimeout: {
		Title:     "Publishing timed out",
		Guidance:  "The site took too long to accept the post. The next scheduled run will try again automatically.",
		Transient: true,
	},
	CategoryContentError: {
		Title:     "Content generation problem",
		Guidance:  "The AI returned unusable content. Review the schedule's template and topics.",
		Transient: false,
	},
	CategoryImageError: {
		Title:     "Image generation problem",
		Guidance:  "The featured image could not be generated. The post was created without one.",
		Transient: true,
	},
	CategoryConfigError: {
		Title:     "Schedule configuration problem",
		Guidance:  "The schedule has an invalid setting. Open the schedule and review its configuration.",
		Transient: false,
	},
	CategoryUnknown: {
		Title:     "Schedule run failed",
		Guidance:  "Something went wrong during this run. If it keeps happening, contact support.",
		Transient: false,
	},
}

// classifyRules is scanned top to bottom against the lowercased error text;
// the first match wins. Specific phrases sit above the generic buckets they
// overlap with, e.g. "publishing failed" before the timeout rules.
var classifyRules = []struct {
	substr   string
	category Category
}{
	{"invalid api key", CategoryAPIAuth},
	{"incorrect api key", CategoryAPIAuth},
	{"rate limit", CategoryAPIRateLimit},
	{"too many requests", CategoryAPIRateLimit},
	{"429", CategoryAPIRateLimit},
	{"insufficient_quota", CategoryAPIQuota},
	{"quota", CategoryAPIQuota},
	{"publish timed out", CategoryPublishTimeout},
	{"publish authentication", CategoryPublishAuth},
	{"application password", CategoryPublishAuth},
	{"publishing failed", CategoryPublishConnection},
	{"connection refused", CategoryPublishConnection},
	{"connection reset", CategoryPublishConnection},
	{"no such host", CategoryPublishConnection},
	{"context deadline exceeded", CategoryAPITimeout},
	{"timed out", CategoryAPITimeout},
	{"timeout", CategoryAPITimeout},
	{"empty completion", CategoryContentError},
	{"content filter", CategoryContentError},
	{"image", CategoryImageError},
	{"timezone", CategoryConfigError},
	{"cron", CategoryConfigError},
	{"time of day", CategoryConfigError},
}

// Classify maps raw error text to a failure category. It is total: anything
// unmatched is CategoryUnknown.
func Classify(errText string) Category {
	lower := strings.ToLower(errText)
	for _, r := range classifyRules {
		if strings.Contains(lower, r.substr) {
			return r.category
		}
	}
	return CategoryUnknown
}

// Info returns the notification copy for a category. Unknown categories fall
// back to CategoryUnknown's copy.
func Info(c Category) CategoryInfo {
	if info, ok := categoryInfo[c]; ok {
		return info
	}
	return categoryInfo[CategoryUnknown]
}
