package platformconfig

import (
	"fmt"
	"time"
)

// CredentialsConfig holds the e-edition subscriber login used by Scraper.Login.
type CredentialsConfig struct {
	Username string
	Password string
}

// LoadCredentialsConfig loads EEDITION_USER/EEDITION_PASS, both required.
func LoadCredentialsConfig() (CredentialsConfig, error) {
	user, err := RequireEnv("EEDITION_USER")
	if err != nil {
		return CredentialsConfig{}, err
	}
	pass, err := RequireEnv("EEDITION_PASS")
	if err != nil {
		return CredentialsConfig{}, err
	}
	return CredentialsConfig{Username: user, Password: pass}, nil
}

// ProxyConfig holds the rotating proxy pool configuration.
type ProxyConfig struct {
	Username        string
	Password        string
	Host            string
	Ports           []string
	RotationEnabled bool
}

// LoadProxyConfig loads SMARTPROXY_* env vars. Credentials and host are
// required only when PROXY_ROTATION_ENABLED=true (default true); a disabled
// pool is a valid configuration (e.g. local/dev runs through a single egress).
func LoadProxyConfig() (ProxyConfig, error) {
	enabled := LoadEnvBool("PROXY_ROTATION_ENABLED", true).Value.(bool)
	if !enabled {
		return ProxyConfig{RotationEnabled: false}, nil
	}
	user, err := RequireEnv("SMARTPROXY_USERNAME")
	if err != nil {
		return ProxyConfig{}, err
	}
	pass, err := RequireEnv("SMARTPROXY_PASSWORD")
	if err != nil {
		return ProxyConfig{}, err
	}
	host, err := RequireEnv("SMARTPROXY_HOST")
	if err != nil {
		return ProxyConfig{}, err
	}
	ports, err := RequireEnvCSV("SMARTPROXY_PORTS")
	if err != nil {
		return ProxyConfig{}, err
	}
	return ProxyConfig{
		Username:        user,
		Password:        pass,
		Host:            host,
		Ports:           ports,
		RotationEnabled: true,
	}, nil
}

// ObjectStoreConfig holds the MinIO/S3-compatible object store connection.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// LoadObjectStoreConfig loads MINIO_* env vars, all required.
func LoadObjectStoreConfig() (ObjectStoreConfig, error) {
	endpoint, err := RequireEnv("MINIO_ENDPOINT")
	if err != nil {
		return ObjectStoreConfig{}, err
	}
	access, err := RequireEnv("MINIO_ACCESS_KEY")
	if err != nil {
		return ObjectStoreConfig{}, err
	}
	secret, err := RequireEnv("MINIO_SECRET_KEY")
	if err != nil {
		return ObjectStoreConfig{}, err
	}
	bucket, err := RequireEnv("MINIO_BUCKET")
	if err != nil {
		return ObjectStoreConfig{}, err
	}
	return ObjectStoreConfig{Endpoint: endpoint, AccessKey: access, SecretKey: secret, Bucket: bucket}, nil
}

// LLMConfig holds the OpenAI-compatible gateway connection used by the
// Summarizer worker. The model name is a logical alias resolved by the
// gateway; this process never hard-codes a vendor.
type LLMConfig struct {
	APIBase   string
	APIKey    string
	Model     string
	MaxTokens int
}

// LoadLLMConfig loads OPENAI_API_BASE/OPENAI_API_KEY/OPENAI_MODEL (required)
// and OPENAI_MAX_TOKENS (tuning knob, fail-open).
func LoadLLMConfig() (LLMConfig, error) {
	base, err := RequireEnv("OPENAI_API_BASE")
	if err != nil {
		return LLMConfig{}, err
	}
	key, err := RequireEnv("OPENAI_API_KEY")
	if err != nil {
		return LLMConfig{}, err
	}
	model, err := RequireEnv("OPENAI_MODEL")
	if err != nil {
		return LLMConfig{}, err
	}
	maxTokens := LoadEnvInt("OPENAI_MAX_TOKENS", 1024, func(v int) error {
		if v < 1 {
			return fmt.Errorf("must be positive")
		}
		return nil
	}).Value.(int)
	return LLMConfig{APIBase: base, APIKey: key, Model: model, MaxTokens: maxTokens}, nil
}

// NotifierConfig holds the ntfy push endpoint configuration.
type NotifierConfig struct {
	URL        string
	Topic      string
	Token      string
	AttachFull bool
}

// LoadNotifierConfig loads NTFY_URL/NTFY_TOPIC (required), NTFY_TOKEN and
// NTFY_ATTACH_FULL (optional).
func LoadNotifierConfig() (NotifierConfig, error) {
	url, err := RequireEnv("NTFY_URL")
	if err != nil {
		return NotifierConfig{}, err
	}
	topic, err := RequireEnv("NTFY_TOPIC")
	if err != nil {
		return NotifierConfig{}, err
	}
	token := OptionalEnv("NTFY_TOKEN", "")
	attachFull := LoadEnvBool("NTFY_ATTACH_FULL", false).Value.(bool)
	return NotifierConfig{URL: url, Topic: topic, Token: token, AttachFull: attachFull}, nil
}

// TuningConfig holds the fail-open tuning knobs. Every
// field falls back to its default with a logged warning on an invalid
// value; nothing here aborts startup.
type TuningConfig struct {
	ScraperParallelism int
	BatchSize          int
	MaxConcurrent      int
	CacheRetentionDays int
	PWTrace            bool
	Warnings           []string
}

// LoadTuningConfig loads the tuning knobs, collecting every fallback warning
// so the caller can log them once at startup.
func LoadTuningConfig() TuningConfig {
	var warnings []string
	collect := func(r ConfigLoadResult) { warnings = append(warnings, r.Warnings...) }

	parallelism := LoadEnvInt("SCRAPER_PARALLELISM", 2, positiveUpTo(16))
	collect(parallelism)
	batch := LoadEnvInt("BATCH_SIZE", 50, positiveUpTo(1000))
	collect(batch)
	maxConcurrent := LoadEnvInt("SUMMARIZER_MAX_CONCURRENT", 4, positiveUpTo(32))
	collect(maxConcurrent)
	retention := LoadEnvInt("CACHE_RETENTION_DAYS", 7, positiveUpTo(365))
	collect(retention)
	pwTrace := LoadEnvBool("PW_TRACE", false)
	collect(pwTrace)

	return TuningConfig{
		ScraperParallelism: parallelism.Value.(int),
		BatchSize:          batch.Value.(int),
		MaxConcurrent:      maxConcurrent.Value.(int),
		CacheRetentionDays: retention.Value.(int),
		PWTrace:            pwTrace.Value.(bool),
		Warnings:           warnings,
	}
}

// ServerConfig holds the Summarizer HTTP API's listen/static tuning knobs.
// Every field is fail-open.
type ServerConfig struct {
	Addr           string
	StaticDir      string
	TrendingWindow int
}

// LoadServerConfig loads APP_ADDR, STATIC_DIR, TRENDING_WINDOW_DAYS.
func LoadServerConfig() ServerConfig {
	addr := LoadEnvString("APP_ADDR", ":8000")
	staticDir := LoadEnvString("STATIC_DIR", "static/ui")
	window := LoadEnvInt("TRENDING_WINDOW_DAYS", 14, positiveUpTo(365))
	return ServerConfig{Addr: addr, StaticDir: staticDir, TrendingWindow: window.Value.(int)}
}

func positiveUpTo(max int) func(int) error {
	return func(v int) error {
		if v < 1 || v > max {
			return fmt.Errorf("must be between 1 and %d", max)
		}
		return nil
	}
}

// CrawlTimeouts holds the per-operation outbound deadlines.
type CrawlTimeouts struct {
	ScrapeDownload time.Duration
	LLMCall        time.Duration
	NotifierPOST   time.Duration
	GracePeriod    time.Duration
}

// DefaultCrawlTimeouts returns the per-operation deadline defaults.
func DefaultCrawlTimeouts() CrawlTimeouts {
	return CrawlTimeouts{
		ScrapeDownload: 60 * time.Second,
		LLMCall:        60 * time.Second,
		NotifierPOST:   15 * time.Second,
		GracePeriod:    30 * time.Second,
	}
}
