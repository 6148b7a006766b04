package platformconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/crb2nu/news-analyzer/internal/apperr"
)

// RequireEnv reads a required environment variable. Unlike LoadEnvWithFallback,
// it never falls back: an empty or missing value is a ConfigError, fatal at
// startup. Credentials, DSNs, and external-endpoint configuration are all
// fail-closed.
func RequireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return "", apperr.New(apperr.KindConfig, "RequireEnv", fmt.Errorf("%s must be set", key))
	}
	return v, nil
}

// RequireEnvInt reads a required integer environment variable.
func RequireEnvInt(key string) (int, error) {
	v, err := RequireEnv(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.New(apperr.KindConfig, "RequireEnvInt", fmt.Errorf("%s must be an integer: %w", key, err))
	}
	return n, nil
}

// RequireEnvCSV reads a required comma-separated list environment variable,
// used for SMARTPROXY_PORTS-style multi-value config.
func RequireEnvCSV(key string) ([]string, error) {
	v, err := RequireEnv(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, apperr.New(apperr.KindConfig, "RequireEnvCSV", fmt.Errorf("%s must contain at least one value", key))
	}
	return out, nil
}

// OptionalEnv reads an optional environment variable, returning defaultValue
// when unset. This is a thin alias of LoadEnvString kept separate so call
// sites reading required vs. optional config read unambiguously.
func OptionalEnv(key, defaultValue string) string {
	return LoadEnvString(key, defaultValue)
}
