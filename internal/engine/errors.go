package engine

import "fmt"

// GenerationError marks a failure in the title or content generation step.
type GenerationError struct {
	Step string // "title" or "content"
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PublishError marks a failure while pushing a finished post to its site.
// The generated post survives as a draft.
type PublishError struct {
	Platform string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publishing failed (%s): %v", e.Platform, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// BillingError is a precondition failure: the owner may not generate content
// right now. It never counts toward the auto-pause retry budget.
type BillingError struct {
	Reason string
}

func (e *BillingError) Error() string { return e.Reason }
