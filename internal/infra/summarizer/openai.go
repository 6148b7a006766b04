// Package summarizer is the Summarizer worker's OpenAI-compatible LLM
// client: request construction, truncation, JSON-contract parsing, and
// the retry/circuit-breaker/concurrency-backpressure envelope around a
// single summarization call.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/crb2nu/news-analyzer/internal/resilience/circuitbreaker"
	"github.com/crb2nu/news-analyzer/internal/resilience/retry"
	"github.com/crb2nu/news-analyzer/internal/utils/text"
)

// systemPrompt describes the assistant's role; the worker never asks the
// model to identify a vendor, only the logical alias resolved by the
// gateway.
const systemPrompt = `You are a local-news summarizer. Given an article's title and body, ` +
	`reply with a single JSON object: {"summary": string (<= %d words), "bullets": string[] (optional), ` +
	`"tags": string[] (optional)}. No prose outside the JSON object.`

// Result is what one Summarize call produces, enough to populate a
// domain.Summary row directly.
type Result struct {
	Text             string
	Bullets          []string
	Tags             []string
	TokensUsed       int
	GenerationTimeMs int
	ParsedJSON       bool
}

// Summarizer is the interface the worker batch runner depends on; OpenAI
// and NoOp both implement it so batch tests can swap in a fake.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (Result, error)
}

type jsonContract struct {
	Summary string   `json:"summary"`
	Bullets []string `json:"bullets,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// OpenAI implements Summarizer against an OpenAI-compatible
// /v1/chat/completions endpoint, wrapped in a circuit breaker and bounded
// retry, with a fixed wait after each 429 and a hook the batch runner uses to
// reduce effective concurrency when throttled.
type OpenAI struct {
	client         *openai.Client
	cfg            Config
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	metrics        MetricsRecorder
	onThrottled    func()
}

// NewOpenAI builds a client against apiBase (OPENAI_API_BASE) using
// apiKey, with cfg controlling the model alias, word limit, input token
// cap, and per-call timeout. onThrottled, if non-nil, is invoked on every
// 429 response so the caller (RunBatch) can reduce its effective
// concurrency for the remainder of the batch.
func NewOpenAI(apiBase, apiKey string, cfg Config, onThrottled func()) (*OpenAI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("summarizer config: %w", err)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		clientCfg.BaseURL = apiBase
	}
	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		cfg:            cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.LLMConfig()),
		retryConfig:    retry.LLMConfig(),
		metrics:        NewPrometheusMetrics(),
		onThrottled:    onThrottled,
	}, nil
}

// Summarize truncates content to the input token budget (middle-truncation
// over budget), calls the model, and parses the JSON contract.
// On parse failure the raw response text is stored as Text with
// ParsedJSON=false rather than returning an error; a non-JSON reply is
// still a usable summary.
func (o *OpenAI) Summarize(ctx context.Context, title, content string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	truncated := text.MiddleTruncate(content, o.cfg.InputTokenCap)

	start := time.Now()
	var resp openai.ChatCompletionResponse
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doCall(ctx, title, truncated)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("llm gateway unavailable: circuit breaker open")
			}
			var rl *rateLimitError
			if errors.As(err, &rl) {
				o.metrics.RecordRetry429()
				if o.onThrottled != nil {
					o.onThrottled()
				}
				if rl.retryAfter > 0 {
					select {
					case <-time.After(rl.retryAfter):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			return err
		}
		resp = cbResult.(openai.ChatCompletionResponse)
		return nil
	})
	duration := time.Since(start)
	o.metrics.RecordDuration(duration)

	if retryErr != nil {
		return Result{}, fmt.Errorf("summarize failed after retries: %w", retryErr)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("llm gateway returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	tokens := resp.Usage.TotalTokens
	o.metrics.RecordTokens(tokens)

	result := Result{
		TokensUsed:       tokens,
		GenerationTimeMs: int(duration.Milliseconds()),
	}

	var parsed jsonContract
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		slog.WarnContext(ctx, "summarizer: non-JSON response, storing raw text",
			slog.String("error", err.Error()))
		o.metrics.RecordParseFailure()
		result.Text = strings.TrimSpace(raw)
		return result, nil
	}

	result.ParsedJSON = true
	result.Text = parsed.Summary
	result.Bullets = parsed.Bullets
	result.Tags = parsed.Tags
	if words := len(strings.Fields(result.Text)); words > o.cfg.WordLimit {
		slog.WarnContext(ctx, "summarizer: summary exceeds word limit",
			slog.Int("words", words), slog.Int("limit", o.cfg.WordLimit))
	}
	o.metrics.RecordWords(len(strings.Fields(result.Text)))
	return result, nil
}

// extractJSONObject trims any leading/trailing prose a model adds around
// the JSON object despite instructions, taking the substring between the
// first '{' and the last '}'.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string { return "rate limited" }

func (o *OpenAI) doCall(ctx context.Context, title, content string) (openai.ChatCompletionResponse, error) {
	prompt := fmt.Sprintf(systemPrompt, o.cfg.WordLimit)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Title: %s\n\n%s", title, content)},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return resp, &rateLimitError{retryAfter: retryAfterFromAPIError(apiErr)}
		}
		return resp, fmt.Errorf("chat completion: %w", err)
	}
	return resp, nil
}

// retryAfterFromAPIError returns the wait applied after a 429: a fixed 2s
// (the worker's base back-off). The error is not inspected, so a
// server-provided Retry-After value is not used.
func retryAfterFromAPIError(apiErr *openai.APIError) time.Duration {
	if apiErr == nil {
		return 2 * time.Second
	}
	return 2 * time.Second
}
