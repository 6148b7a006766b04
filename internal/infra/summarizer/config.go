package summarizer

import (
	"fmt"
	"time"
)

// Config holds the tuning knobs for the OpenAI-compatible summarization
// client: the model is a logical alias the gateway resolves, never a
// hard-coded vendor name.
type Config struct {
	// Model is the logical alias (e.g. "active") passed verbatim as the
	// chat-completion request's Model field.
	Model string

	// WordLimit is the maximum number of words the summary field may
	// contain; enforced as a soft limit (logged, not rejected) since the
	// model is asked for it in the prompt but JSON output isn't re-scored.
	WordLimit int

	// InputTokenCap bounds the truncated title+content sent to the model
	// (OPENAI_MAX_TOKENS, default ~6000 tokens).
	InputTokenCap int

	// Timeout is the per-call deadline (default 60s).
	Timeout time.Duration
}

const (
	minWordLimit = 50
	maxWordLimit = 300
)

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Model:         "active",
		WordLimit:     300,
		InputTokenCap: 6000,
		Timeout:       60 * time.Second,
	}
}

// Validate checks the configuration is sane before any call is attempted.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model alias cannot be empty")
	}
	if c.WordLimit < minWordLimit || c.WordLimit > maxWordLimit {
		return fmt.Errorf("word limit %d outside [%d,%d]", c.WordLimit, minWordLimit, maxWordLimit)
	}
	if c.InputTokenCap <= 0 {
		return fmt.Errorf("input token cap must be positive, got %d", c.InputTokenCap)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}
