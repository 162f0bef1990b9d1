package api

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"simple", "alice", true},
		{"underscores and digits", "player_42", true},
		{"unicode letters", "zoë", true},
		{"empty", "", false},
		{"spaces", "two words", false},
		{"punctuation", "a!b", false},
		{"too long", strings.Repeat("a", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateName(tt.value)
			if (got == "") != tt.ok {
				t.Errorf("validateName(%q) = %q, expected ok=%v", tt.value, got, tt.ok)
			}
		})
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true}, // terminal clients send no origin
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		if IsAllowedOrigin(tt.origin) != tt.ok {
			t.Errorf("IsAllowedOrigin(%q) should be %v", tt.origin, tt.ok)
		}
	}
}

func TestConnectionSlots(t *testing.T) {
	cfg := DefaultLimiterConfig
	cfg.MaxConnsPerIP = 2
	limiter := NewClientLimiter(cfg)
	t.Cleanup(limiter.Stop)

	if !limiter.AcquireConn("1.2.3.4") || !limiter.AcquireConn("1.2.3.4") {
		t.Fatal("the first two connections are allowed")
	}
	if limiter.AcquireConn("1.2.3.4") {
		t.Error("the third connection must be rejected")
	}
	if limiter.Rejected() == 0 {
		t.Error("rejections must be counted")
	}
	if !limiter.AcquireConn("5.6.7.8") {
		t.Error("other IPs have their own allowance")
	}

	limiter.ReleaseConn("1.2.3.4")
	if got := limiter.Conns("1.2.3.4"); got != 1 {
		t.Errorf("expected 1 held connection after release, got %d", got)
	}
	if !limiter.AcquireConn("1.2.3.4") {
		t.Error("releasing a slot frees it up")
	}

	// Releasing an unknown IP must not panic or go negative
	limiter.ReleaseConn("9.9.9.9")
	if got := limiter.Conns("9.9.9.9"); got != 0 {
		t.Errorf("unknown IPs hold no connections, got %d", got)
	}
}

func TestRequestBudget(t *testing.T) {
	cfg := DefaultLimiterConfig
	cfg.RequestsPerSecond = 0.0001
	cfg.Burst = 2
	limiter := NewClientLimiter(cfg)
	t.Cleanup(limiter.Stop)

	if !limiter.AllowRequest("1.2.3.4") || !limiter.AllowRequest("1.2.3.4") {
		t.Fatal("the burst must be granted")
	}
	if limiter.AllowRequest("1.2.3.4") {
		t.Error("an exhausted bucket must reject")
	}
	if !limiter.AllowRequest("5.6.7.8") {
		t.Error("buckets are per IP")
	}
}
