package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/crb2nu/news-analyzer/internal/platformconfig"
)

// ProxyPool round-robins across a rotating proxy's port list, the shape
// smartproxy-style providers expose (one endpoint per port, sticky
// per-connection IP picked by the upstream). A disabled pool (no ports
// configured) degrades to direct egress: Next returns nil.
type ProxyPool struct {
	cfg     platformconfig.ProxyConfig
	next    uint64
	mu      sync.Mutex
	rng     *rand.Rand
	limiter *rate.Limiter
}

// NewProxyPool builds a pool from the already-loaded proxy config. The
// pool paces all egress through a shared token bucket (2 req/s, burst 4)
// so the worker-pool fan-out cannot burst past what a residential proxy
// provider tolerates.
func NewProxyPool(cfg platformconfig.ProxyConfig) *ProxyPool {
	return &ProxyPool{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Wait blocks until the pool's rate limiter grants a token or ctx is
// canceled. Called once per download attempt, before dialing.
func (p *ProxyPool) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Enabled reports whether rotation is configured.
func (p *ProxyPool) Enabled() bool {
	return p.cfg.RotationEnabled && len(p.cfg.Ports) > 0
}

// Next returns the proxy URL for the next attempt in round-robin order,
// or nil if rotation is disabled (callers should then dial directly).
func (p *ProxyPool) Next() (*url.URL, error) {
	if !p.Enabled() {
		return nil, nil
	}
	idx := atomic.AddUint64(&p.next, 1) - 1
	port := p.cfg.Ports[int(idx%uint64(len(p.cfg.Ports)))]
	raw := fmt.Sprintf("http://%s:%s@%s:%s", url.QueryEscape(p.cfg.Username), url.QueryEscape(p.cfg.Password), p.cfg.Host, port)
	return url.Parse(raw)
}

// Jitter returns a random delay in [0, max) to desynchronize concurrent
// scraper instances hammering the same proxy endpoint on retry.
func (p *ProxyPool) Jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.rng.Int63n(int64(max)))
}
