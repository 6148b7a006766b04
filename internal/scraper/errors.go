// Package scraper implements the authenticated, proxy-rotated edition
// downloader: session lifecycle, edition discovery, and
// idempotent download into the Object Store.
package scraper

import (
	"errors"

	"github.com/crb2nu/news-analyzer/internal/apperr"
)

// Sentinel errors for the session lifecycle. ErrAuthFailed and
// ErrSessionExpired are wrapped under apperr.KindAuthFailed by the helpers
// below so callers (cmd/scraper, the worker scheduler) can branch on Kind
// without string-matching; the other sentinels are not wrapped in apperr.
var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrCaptchaRequired = errors.New("captcha challenge required")
	ErrNetworkError    = errors.New("network error during login")
	ErrSessionExpired  = errors.New("session expired")
	ErrEditionNotFound = errors.New("edition not found")
)

func authFailed(op string, err error) error {
	return apperr.New(apperr.KindAuthFailed, op, errors.Join(ErrAuthFailed, err))
}

func sessionExpired(op string, err error) error {
	return apperr.New(apperr.KindAuthFailed, op, errors.Join(ErrSessionExpired, err))
}

func editionNotFound(op string, err error) error {
	return apperr.New(apperr.KindNotFound, op, errors.Join(ErrEditionNotFound, err))
}

func transient(op string, err error) error {
	return apperr.New(apperr.KindTransient, op, err)
}
