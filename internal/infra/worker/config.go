package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/crb2nu/news-analyzer/internal/platformconfig"
)

// ScheduleConfig holds the cron cadence for one orchestrated job, matching
// the defaults an external scheduler would be configured with: expression,
// enabled flag (a disabled job is skipped entirely, useful for local runs
// that only want extraction without a live scrape), and a timeout bounding
// how long a single run may take before it's treated as hung.
type ScheduleConfig struct {
	Expression string
	Enabled    bool
	Timeout    time.Duration
}

// WorkerConfig holds the cadence for every job the self-hosted scheduler
// drives when no external cron/scheduler is available: weekly
// auth-refresh, edition-day scrape, hourly extract, half-hourly
// summarize-batch, and daily notify.
type WorkerConfig struct {
	Timezone string

	AuthRefresh    ScheduleConfig
	Scrape         ScheduleConfig
	Extract        ScheduleConfig
	SummarizeBatch ScheduleConfig
	Notify         ScheduleConfig

	NotifyMaxConcurrent int
	HealthPort          int
}

// DefaultConfig returns the default job schedules.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Timezone: "America/New_York",
		AuthRefresh: ScheduleConfig{
			Expression: "0 3 * * 0", // weekly, Sunday 03:00
			Enabled:    true,
			Timeout:    10 * time.Minute,
		},
		Scrape: ScheduleConfig{
			Expression: "0 6 * * 3,6", // Wed, Sat at 06:00
			Enabled:    true,
			Timeout:    30 * time.Minute,
		},
		Extract: ScheduleConfig{
			Expression: "15 * * * *", // hourly at :15
			Enabled:    true,
			Timeout:    20 * time.Minute,
		},
		SummarizeBatch: ScheduleConfig{
			Expression: "*/30 * * * *", // every 30 minutes
			Enabled:    true,
			Timeout:    20 * time.Minute,
		},
		Notify: ScheduleConfig{
			Expression: "0 7 * * *", // daily at 07:00
			Enabled:    true,
			Timeout:    5 * time.Minute,
		},
		NotifyMaxConcurrent: 10,
		HealthPort:          9091,
	}
}

// Validate checks every schedule expression and the remaining knobs,
// collecting all failures rather than stopping at the first one.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := platformconfig.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	schedules := []struct {
		name string
		sc   ScheduleConfig
	}{
		{"auth_refresh", c.AuthRefresh},
		{"scrape", c.Scrape},
		{"extract", c.Extract},
		{"summarize_batch", c.SummarizeBatch},
		{"notify", c.Notify},
	}
	for _, s := range schedules {
		if !s.sc.Enabled {
			continue
		}
		if err := platformconfig.ValidateCronSchedule(s.sc.Expression); err != nil {
			errs = append(errs, fmt.Errorf("%s schedule: %w", s.name, err))
		}
		if err := platformconfig.ValidatePositiveDuration(s.sc.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("%s timeout: %w", s.name, err))
		}
	}

	if err := platformconfig.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := platformconfig.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("worker config: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker cadence from environment variables,
// falling back to DefaultConfig's values (with a metric, plus a logged
// warning for cron expressions) on any
// invalid entry: cron cadences are tuning knobs, not fail-closed secrets,
// so a typo must never take the whole scheduler down.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	loadSchedule := func(envPrefix string, field *ScheduleConfig) {
		result := platformconfig.LoadEnvWithFallback(envPrefix+"_CRON", field.Expression, platformconfig.ValidateCronSchedule)
		field.Expression = result.Value.(string)
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(envPrefix)
			for _, w := range result.Warnings {
				logger.Warn("worker: schedule fallback applied", slog.String("field", envPrefix), slog.String("warning", w))
			}
		}

		enabledResult := platformconfig.LoadEnvBool(envPrefix+"_ENABLED", field.Enabled)
		field.Enabled = enabledResult.Value.(bool)

		timeoutResult := platformconfig.LoadEnvDuration(envPrefix+"_TIMEOUT", field.Timeout, platformconfig.ValidatePositiveDuration)
		field.Timeout = timeoutResult.Value.(time.Duration)
		if timeoutResult.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(envPrefix + "_timeout")
		}
	}

	loadSchedule("AUTH_REFRESH", &cfg.AuthRefresh)
	loadSchedule("SCRAPE", &cfg.Scrape)
	loadSchedule("EXTRACT", &cfg.Extract)
	loadSchedule("SUMMARIZE_BATCH", &cfg.SummarizeBatch)
	loadSchedule("NOTIFY", &cfg.Notify)

	tzResult := platformconfig.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, platformconfig.ValidateTimezone)
	cfg.Timezone = tzResult.Value.(string)
	if tzResult.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
	}

	concurrentResult := platformconfig.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return platformconfig.ValidateIntRange(v, 1, 50)
	})
	cfg.NotifyMaxConcurrent = concurrentResult.Value.(int)
	if concurrentResult.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("notify_max_concurrent")
	}

	portResult := platformconfig.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return platformconfig.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = portResult.Value.(int)
	if portResult.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
	}

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
