// Package bootstrap holds the init-and-wire steps shared by every binary
// in cmd/ (scraper, extractor, summarizer, notifier): structured logger
// construction and database connection, so each binary wires the same
// logger and pool the same way.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crb2nu/news-analyzer/internal/apperr"
	db "github.com/crb2nu/news-analyzer/internal/platform/db"
	"github.com/crb2nu/news-analyzer/internal/platformconfig"
)

// Process exit codes shared by every binary.
const (
	ExitOK                  = 0
	ExitGenericFailure      = 1
	ExitMisconfiguration    = 2
	ExitAuthFailure         = 3
	ExitUpstreamUnavailable = 4
)

// NewLogger builds a JSON structured logger honoring LOG_LEVEL, the same
// shape every package in internal/observability/logging produces, kept
// local here so cmd/ binaries don't import the API-only logging helpers.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}))
	slog.SetDefault(logger)
	return logger
}

// OpenDB requires DATABASE_URL (fail-closed) before delegating
// to platform/db.Open, so a missing DSN exits 2 instead of db.Open's
// internal log.Fatal (exit 1).
func OpenDB() (*sql.DB, error) {
	if _, err := platformconfig.RequireEnv("DATABASE_URL"); err != nil {
		return nil, err
	}
	return db.Open(), nil
}

// ExitForErr maps an apperr.Kind-carrying error to a process exit code,
// falling back to 1 for anything not classified.
func ExitForErr(logger *slog.Logger, context string, err error) {
	if err == nil {
		return
	}
	code := ExitGenericFailure
	switch apperr.KindOf(err) {
	case apperr.KindConfig:
		code = ExitMisconfiguration
	case apperr.KindAuthFailed:
		code = ExitAuthFailure
	case apperr.KindUpstreamUnavailable:
		code = ExitUpstreamUnavailable
	}
	logger.Error(context, slog.Any("error", err), slog.Int("exit_code", code))
	os.Exit(code)
}

// SignalContext returns a context canceled on SIGINT/SIGTERM, so a
// scheduler kill propagates through every in-flight operation and the
// deferred cleanups (browser contexts above all) still run instead of
// the runtime's immediate-exit default. After the first signal, work
// gets grace to unwind before the process force-exits; a second signal
// force-exits immediately.
func SignalContext(logger *slog.Logger, grace time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("shutdown signal received, canceling in-flight work",
				slog.String("signal", sig.String()), slog.Duration("grace", grace))
			cancel()
			select {
			case <-time.After(grace):
				logger.Error("grace period elapsed, force exiting")
				os.Exit(ExitGenericFailure)
			case sig = <-sigCh:
				logger.Error("second signal, force exiting", slog.String("signal", sig.String()))
				os.Exit(ExitGenericFailure)
			}
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// RequireFlag returns a ConfigError-shaped error for a missing required
// CLI flag, classified the same as a missing env var so it maps to exit
// code 2.
func RequireFlag(name, value string) (string, error) {
	if value == "" {
		return "", apperr.New(apperr.KindConfig, "flag", fmt.Errorf("--%s is required", name))
	}
	return value, nil
}
