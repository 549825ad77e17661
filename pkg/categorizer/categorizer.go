// Package categorizer defines the contract for suggesting a ticket category.
package categorizer

import "context"

// CategorizationRequest holds the ticket text to categorize.
type CategorizationRequest struct {
	Title       string
	Description string
	// CurrentCategory is the category already assigned, if any.
	CurrentCategory string
}

// Text joins title and description the way training examples are built.
func (r CategorizationRequest) Text() string {
	return r.Title + " " + r.Description
}

// CategorizationResult holds the suggested category.
type CategorizationResult struct {
	SuggestedCategory string
	Confidence        float64 // probability in [0,1]
	// Changed is true when the suggestion differs from CurrentCategory.
	Changed bool
}

// ContentCategorizer suggests a category for ticket text
type ContentCategorizer interface {
	Categorize(ctx context.Context, req CategorizationRequest) (CategorizationResult, error)
}
