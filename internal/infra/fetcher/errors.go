package fetcher

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/crb2nu/news-analyzer/internal/netsafe"
)

// validateURLIfRequired delegates to the shared SSRF-safe validator. When
// denyPrivateIPs is false only the private-IP check is skipped: the URL
// must still parse and use the http or https scheme.
func validateURLIfRequired(urlStr string, denyPrivateIPs bool) error {
	if !denyPrivateIPs {
		u, err := url.Parse(urlStr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
		}
		return nil
	}
	if err := netsafe.ValidateURL(urlStr); err != nil {
		// netsafe reports a private address with this fixed message.
		var ve *netsafe.ValidationError
		if errors.As(err, &ve) && ve.Message == "cannot point to a private network" {
			return errors.Join(ErrPrivateIP, err)
		}
		return errors.Join(ErrInvalidURL, err)
	}
	return nil
}

// Sentinel errors surfaced by ReadabilityFetcher. The extractor's stub
// refetch logs any of them and keeps the stored block, so none of them
// aborts the edition.
var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrPrivateIP         = errors.New("url resolves to a private IP address")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrTimeout           = errors.New("fetch timeout")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
