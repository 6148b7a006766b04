package notifier

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError is a 429 response from the ntfy push endpoint.
// RetryAfter carries the server-provided Retry-After delay, honored
// verbatim by the retry loop.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("ntfy rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-retryable 4xx (excluding 429) response.
type ClientError struct {
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("ntfy client error %d: %s", e.StatusCode, e.Body)
}

// ServerError is a retryable 5xx response.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("ntfy server error %d: %s", e.StatusCode, e.Body)
}

// isRetryable: 5xx and network errors are retried, 4xx (other than
// 429, handled separately) are not.
func isRetryable(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}
	return true
}
