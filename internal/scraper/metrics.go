package scraper

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes scraper activity as Prometheus series, following the
// getOrCreate guarded-registration pattern used throughout this module so
// repeated construction (tests, subcommand re-entry) never panics on
// AlreadyRegisteredError.
type Metrics struct {
	AttemptsTotal       *prometheus.CounterVec
	ProxyRotationsTotal prometheus.Counter
	SessionTransitions  *prometheus.CounterVec
	DownloadBytesTotal  prometheus.Counter
	EditionsDownloaded  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		AttemptsTotal: getOrCreateCounterVec(prometheus.CounterOpts{
			Name: "scraper_download_attempts_total",
			Help: "Total download attempts by outcome.",
		}, []string{"outcome"}),
		ProxyRotationsTotal: getOrCreateCounter(prometheus.CounterOpts{
			Name: "scraper_proxy_rotations_total",
			Help: "Total number of proxy rotations triggered by 403/407/429 responses.",
		}),
		SessionTransitions: getOrCreateCounterVec(prometheus.CounterOpts{
			Name: "scraper_session_transitions_total",
			Help: "Total session lifecycle transitions by destination state.",
		}, []string{"state"}),
		DownloadBytesTotal: getOrCreateCounter(prometheus.CounterOpts{
			Name: "scraper_download_bytes_total",
			Help: "Total bytes downloaded into the object store.",
		}),
		EditionsDownloaded: getOrCreateCounter(prometheus.CounterOpts{
			Name: "scraper_editions_downloaded_total",
			Help: "Total editions successfully downloaded.",
		}),
	}
}

func getOrCreateCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
	}
	return c
}

func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return c
}
