package scraper

import (
	"testing"

	"github.com/crb2nu/news-analyzer/internal/platformconfig"
)

func TestProxyPoolRoundRobin(t *testing.T) {
	pool := NewProxyPool(platformconfig.ProxyConfig{
		RotationEnabled: true,
		Username:        "user",
		Password:        "pass",
		Host:            "proxy.example.com",
		Ports:           []string{"10001", "10002", "10003"},
	})

	seen := make(map[string]bool)
	for i := 0; i < 6; i++ {
		u, err := pool.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		seen[u.Port()] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected all 3 ports visited across 6 calls, got %d", len(seen))
	}
}

func TestProxyPoolDisabledReturnsNil(t *testing.T) {
	pool := NewProxyPool(platformconfig.ProxyConfig{RotationEnabled: false})
	u, err := pool.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil proxy URL when rotation disabled, got %v", u)
	}
}
