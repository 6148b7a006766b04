// Package tracing provides OpenTelemetry tracing integration.
//
// Middleware wraps an http.Handler: it extracts W3C trace context from the
// request headers, starts a server span named "METHOD path", sets the
// X-Trace-Id response header, and records method, path and status code
// (plus an error attribute on 5xx) on the span. GetTracer returns the
// package tracer for creating spans elsewhere. The package does not set
// up a tracer provider or an exporter; spans go to whatever provider is
// registered with otel.
//
// Example usage:
//
//	import "github.com/crb2nu/news-analyzer/internal/observability/tracing"
//
//	handler := tracing.Middleware(mux)
//
//	func processRequest(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "process-request")
//	    defer span.End()
//	    // ... process request ...
//	}
package tracing
