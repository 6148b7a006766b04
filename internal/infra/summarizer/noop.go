package summarizer

import (
	"context"
	"strings"
)

// NoOp is a Summarizer that derives a cheap extractive summary from the
// article's own content, with no external call. Useful for local runs and
// tests where OPENAI_API_KEY isn't configured.
type NoOp struct{}

// NewNoOp creates a NoOp summarizer.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Summarize returns the first 60 words of content as the summary
// text, matching the jsonContract shape (no bullets/tags, ParsedJSON
// stays false since nothing was actually parsed).
func (n *NoOp) Summarize(_ context.Context, _ string, content string) (Result, error) {
	const maxWords = 60
	words := strings.Fields(content)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return Result{Text: strings.Join(words, " ")}, nil
}
