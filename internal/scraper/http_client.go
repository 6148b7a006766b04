package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crb2nu/news-analyzer/internal/netsafe"
)

// downloadTimeouts is the subset of CrawlTimeouts the downloader needs;
// kept narrow so callers can pass platformconfig.CrawlTimeouts directly.
type downloadTimeouts struct {
	Download time.Duration
}

// newHTTPClient builds a per-attempt client bound to a single proxy URL
// (nil means direct egress): TLS 1.2+ floor, bounded idle connections,
// no automatic redirect-following
// past a validated hop.
func newHTTPClient(proxy *url.URL, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return netsafe.ValidateURL(req.URL.String())
		},
	}
}

// validateDownloadURL is the SSRF check downloadWithRotation applies
// before the first attempt; package tests replace it to reach an
// httptest server on loopback.
var validateDownloadURL = netsafe.ValidateURL

// rotationTrigger statuses force the pool to hand out a fresh proxy
// before the next attempt.
func isRotationTrigger(status int) bool {
	return status == http.StatusForbidden || status == http.StatusProxyAuthRequired || status == http.StatusTooManyRequests
}

func isServerError(status int) bool {
	return status >= 500 && status < 600
}

// retryAfter parses a Retry-After header (seconds form only, which is what
// the e-edition platform and most proxy gateways emit on 429).
func retryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// downloadOnce performs one GET through a proxy-rotated, SSRF-validated
// client, reading the full body up to maxBytes.
func downloadOnce(ctx context.Context, client *http.Client, rawURL string, userAgent string, maxBytes int64) ([]byte, int, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("response exceeds %d byte limit", maxBytes)
	}
	return body, resp.StatusCode, resp.Header, nil
}

// downloadWithRotation drives up to cfg.MaxAttempts GETs, rotating the
// proxy and applying exponential backoff with jitter, capped at
// cfg.MaxDelay, on 403/407/429/5xx, honoring Retry-After when present.
// Returns the final error, wrapped as transient, if every attempt fails;
// any other HTTP status returns a plain error at once.
func (s *Scraper) downloadWithRotation(ctx context.Context, rawURL string) ([]byte, error) {
	if err := validateDownloadURL(rawURL); err != nil {
		return nil, fmt.Errorf("scraper: invalid download URL: %w", err)
	}

	cfg := s.retryCfg
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := s.proxies.Wait(ctx); err != nil {
			return nil, err
		}
		proxy, perr := s.proxies.Next()
		if perr != nil {
			return nil, fmt.Errorf("scraper: proxy selection: %w", perr)
		}
		client := newHTTPClient(proxy, s.timeouts.Download)

		body, status, headers, err := downloadOnce(ctx, client, rawURL, s.userAgent, s.maxBodyBytes)
		if err == nil && status == http.StatusOK {
			return body, nil
		}

		if err != nil {
			lastErr = transient("download", err)
		} else if isRotationTrigger(status) || isServerError(status) {
			lastErr = transient("download", fmt.Errorf("HTTP %d from %s", status, rawURL))
		} else {
			return nil, fmt.Errorf("scraper: download %s: unexpected HTTP %d", rawURL, status)
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay + s.proxies.Jitter(delay/2)
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		if headers != nil {
			if ra, ok := retryAfter(headers); ok {
				wait = ra + s.proxies.Jitter(ra/2)
			}
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return nil, fmt.Errorf("scraper: exhausted %d attempts downloading %s: %w", cfg.MaxAttempts, rawURL, lastErr)
}
