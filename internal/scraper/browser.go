package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Browser drives a headless browser through the interactive login form
// and page-list discovery, the two steps that cannot be done with a bare
// HTTP client because the e-edition platform gates both behind
// JavaScript-rendered content.
type Browser interface {
	Login(ctx context.Context, loginURL, username, password string) (*SessionState, error)
	Discover(ctx context.Context, session *SessionState, editionURL string) ([]PageURL, error)
}

// PageURL is one page of a discovered edition, ordered ascending by Page.
type PageURL struct {
	Page int
	URL  string
}

// ChromeBrowser implements Browser with chromedp. Every exported method
// allocates its own browser context and guarantees it is closed on every
// exit path (including panic recovery), since a leaked tracing buffer
// left the prior generation of this scraper prone to slow OOMs.
type ChromeBrowser struct {
	// Headless, when false, launches a visible browser (debugging only).
	Headless bool
	// Trace enables chromedp's verbose network/console logging, gated by
	// the PW_TRACE tuning knob so it never runs by default in production.
	Trace   bool
	Timeout time.Duration
}

// NewChromeBrowser returns a browser with production defaults.
func NewChromeBrowser(trace bool, timeout time.Duration) *ChromeBrowser {
	return &ChromeBrowser{Headless: true, Trace: trace, Timeout: timeout}
}

func (b *ChromeBrowser) newContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", b.Headless))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	var taskCtx context.Context
	var cancelTask context.CancelFunc
	if b.Trace {
		taskCtx, cancelTask = chromedp.NewContext(allocCtx, chromedp.WithDebugf(log.Printf))
	} else {
		taskCtx, cancelTask = chromedp.NewContext(allocCtx)
	}

	cancel := func() {
		cancelTask()
		cancelAlloc()
	}
	return taskCtx, cancel
}

// Login submits the credential form at loginURL and captures the
// resulting cookies plus localStorage as a SessionState.
func (b *ChromeBrowser) Login(ctx context.Context, loginURL, username, password string) (state *SessionState, err error) {
	taskCtx, cancel := b.newContext(ctx)
	defer func() {
		cancel()
		if r := recover(); r != nil {
			err = fmt.Errorf("scraper: browser login panic: %v", r)
		}
	}()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, b.Timeout)
	defer timeoutCancel()

	var cookies []*network.Cookie
	var storageJSON string

	runErr := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(`input[name="username"], input[type="email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"], input[type="email"]`, username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"], input[type="password"]`, password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitNotPresent(`input[type="password"]`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			cs, cerr := network.GetCookies().Do(ctx)
			if cerr != nil {
				return cerr
			}
			cookies = cs
			return nil
		}),
		chromedp.Evaluate(`JSON.stringify(window.localStorage)`, &storageJSON),
	)
	if runErr != nil {
		if ctx.Err() != nil {
			return nil, transient("login", runErr)
		}
		return nil, authFailed("login", runErr)
	}

	converted := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		converted = append(converted, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}

	now := time.Now().UTC()
	return &SessionState{
		Cookies:   converted,
		Storage:   parseStorageJSON(storageJSON),
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}, nil
}

// Discover navigates to editionURL using session's cookies and collects
// the edition's page links in document order, which matches the
// platform's ascending page-number ordering.
func (b *ChromeBrowser) Discover(ctx context.Context, session *SessionState, editionURL string) (pages []PageURL, err error) {
	taskCtx, cancel := b.newContext(ctx)
	defer func() {
		cancel()
		if r := recover(); r != nil {
			err = fmt.Errorf("scraper: browser discover panic: %v", r)
		}
	}()

	taskCtx, timeoutCancel := context.WithTimeout(taskCtx, b.Timeout)
	defer timeoutCancel()

	setCookies := make([]chromedp.Action, 0, len(session.Cookies)+2)
	setCookies = append(setCookies, network.Enable())
	for _, c := range session.Cookies {
		cookie := c
		setCookies = append(setCookies, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookie(cookie.Name, cookie.Value).
				WithDomain(cookie.Domain).
				WithPath(cookie.Path).
				WithHTTPOnly(cookie.HTTPOnly).
				WithSecure(cookie.Secure).
				Do(ctx)
		}))
	}
	setCookies = append(setCookies, chromedp.Navigate(editionURL), chromedp.WaitReady("body", chromedp.ByQuery))

	var hrefs []string
	runErr := chromedp.Run(taskCtx, append(setCookies, chromedp.Evaluate(
		`Array.from(document.querySelectorAll('a[href*="page"]')).map(a => a.href)`, &hrefs,
	))...)
	if runErr != nil {
		if ctx.Err() != nil {
			return nil, transient("discover", runErr)
		}
		return nil, editionNotFound("discover", runErr)
	}

	pages = make([]PageURL, 0, len(hrefs))
	for i, href := range hrefs {
		pages = append(pages, PageURL{Page: i + 1, URL: href})
	}
	return pages, nil
}

func parseStorageJSON(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]string{}
	}
	return m
}
