package scraper

import "testing"

func TestLifecycleHappyPath(t *testing.T) {
	l := NewLifecycle()
	if l.State() != StateNoSession {
		t.Fatalf("expected NoSession, got %s", l.State())
	}
	if err := l.BeginLogin(); err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}
	if err := l.LoginSucceeded(); err != nil {
		t.Fatalf("LoginSucceeded: %v", err)
	}
	if l.State() != StateActive {
		t.Fatalf("expected Active, got %s", l.State())
	}
}

func TestLifecycleRefreshFailureEscalatesToFailed(t *testing.T) {
	l := NewLifecycle()
	_ = l.BeginLogin()
	_ = l.LoginSucceeded()

	if err := l.MarkExpired(); err != nil {
		t.Fatalf("MarkExpired: %v", err)
	}
	if err := l.BeginRefresh(); err != nil {
		t.Fatalf("BeginRefresh: %v", err)
	}
	if got := l.RefreshFailed(); got != StateExpired {
		t.Fatalf("expected Expired after first failure, got %s", got)
	}

	if err := l.BeginRefresh(); err != nil {
		t.Fatalf("BeginRefresh (2nd): %v", err)
	}
	if got := l.RefreshFailed(); got != StateFailed {
		t.Fatalf("expected Failed after second consecutive failure, got %s", got)
	}
}

func TestLifecycleInvalidTransition(t *testing.T) {
	l := NewLifecycle()
	if err := l.LoginSucceeded(); err == nil {
		t.Fatal("expected error completing login before it began")
	}
}
