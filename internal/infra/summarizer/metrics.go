package summarizer

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder abstracts metrics recording so Summarize can be unit
// tested with a mock recorder instead of a live Prometheus registry.
type MetricsRecorder interface {
	RecordWords(words int)
	RecordTokens(tokens int)
	RecordDuration(duration time.Duration)
	RecordParseFailure()
	RecordRetry429()
}

// PrometheusMetrics implements MetricsRecorder against the default
// registry, using getOrCreate-on-conflict so repeated construction in
// tests never panics on double-registration.
type PrometheusMetrics struct {
	wordsHistogram    prometheus.Histogram
	tokensHistogram   prometheus.Histogram
	durationHistogram prometheus.Histogram
	parseFailures     prometheus.Counter
	retry429s         prometheus.Counter
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

func getOrCreateHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		return promauto.NewHistogram(opts)
	}
	return h
}

func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		return promauto.NewCounter(opts)
	}
	return c
}

// NewPrometheusMetrics returns the process-wide singleton metrics recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			wordsHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "summarizer_summary_words",
				Help:    "Distribution of generated summary lengths in words",
				Buckets: []float64{20, 50, 100, 150, 200, 250, 300, 400},
			}),
			tokensHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "summarizer_tokens_used",
				Help:    "Tokens reported by the LLM gateway per summarization call",
				Buckets: prometheus.ExponentialBuckets(100, 2, 10),
			}),
			durationHistogram: getOrCreateHistogram(prometheus.HistogramOpts{
				Name:    "summarizer_call_duration_seconds",
				Help:    "Time taken per summarization call",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			}),
			parseFailures: getOrCreateCounter(prometheus.CounterOpts{
				Name: "summarizer_json_parse_failures_total",
				Help: "Summaries stored as raw text after JSON parse failure",
			}),
			retry429s: getOrCreateCounter(prometheus.CounterOpts{
				Name: "summarizer_retry_429_total",
				Help: "Total 429 responses observed from the LLM gateway",
			}),
		}
	})
	return prometheusMetricsInstance
}

func (p *PrometheusMetrics) RecordWords(words int)          { p.wordsHistogram.Observe(float64(words)) }
func (p *PrometheusMetrics) RecordTokens(tokens int)        { p.tokensHistogram.Observe(float64(tokens)) }
func (p *PrometheusMetrics) RecordDuration(d time.Duration) { p.durationHistogram.Observe(d.Seconds()) }
func (p *PrometheusMetrics) RecordParseFailure()            { p.parseFailures.Inc() }
func (p *PrometheusMetrics) RecordRetry429()                { p.retry429s.Inc() }
