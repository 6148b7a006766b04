// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic in its two
// subpackages; it has no health check utilities.
//
// The package supports:
//   - Circuit breakers for external calls (scraper proxy, LLM, notifier webhook)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.DefaultConfig("my-service"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	retryConfig := retry.DefaultConfig()
//	err = retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
