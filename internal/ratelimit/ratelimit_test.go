package ratelimit

import (
	"net"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, now *time.Time) *MemoryRateLimiter {
	t.Helper()
	rl := NewMemoryRateLimiter(&Config{
		WindowSize:    time.Minute,
		MaxAttempts:   3,
		CleanupPeriod: time.Hour,
		BanDuration:   10 * time.Minute,
	})
	rl.now = func() time.Time { return *now }
	t.Cleanup(rl.Close)
	return rl
}

func TestAllowWithinLimit(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(t, &now)

	for i := 0; i < 3; i++ {
		d := rl.Allow("1.2.3.4")
		if !d.Allowed {
			t.Fatalf("attempt %d rejected", i+1)
		}
		if d.Remaining != 2-i {
			t.Errorf("attempt %d: remaining = %d, want %d", i+1, d.Remaining, 2-i)
		}
	}

	d := rl.Allow("1.2.3.4")
	if d.Allowed || !d.Banned {
		t.Fatalf("fourth attempt = %+v, want banned", d)
	}
	if d.RetryAfter != 10*time.Minute {
		t.Errorf("retry after = %v", d.RetryAfter)
	}

	if other := rl.Allow("5.6.7.8"); !other.Allowed {
		t.Error("unrelated key was limited")
	}
}

func TestBanOutlivesWindow(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(t, &now)
	for i := 0; i < 4; i++ {
		rl.Allow("k")
	}

	now = now.Add(2 * time.Minute)
	if d := rl.Allow("k"); d.Allowed || !d.Banned {
		t.Fatalf("attempt during ban = %+v", d)
	}

	now = now.Add(10 * time.Minute)
	if d := rl.Allow("k"); !d.Allowed {
		t.Fatalf("attempt after ban = %+v", d)
	}
}

func TestWindowResets(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(t, &now)
	for i := 0; i < 3; i++ {
		rl.Allow("k")
	}
	now = now.Add(61 * time.Second)
	if d := rl.Allow("k"); !d.Allowed || d.Remaining != 2 {
		t.Fatalf("attempt in new window = %+v", d)
	}
}

func TestResetAndCleanup(t *testing.T) {
	now := time.Now()
	rl := newTestLimiter(t, &now)
	for i := 0; i < 3; i++ {
		rl.Allow("k")
	}
	rl.Reset("k")
	if d := rl.Allow("k"); d.Remaining != 2 {
		t.Errorf("remaining after reset = %d, want 2", d.Remaining)
	}

	for i := 0; i < 4; i++ {
		rl.Allow("banned")
	}
	now = now.Add(2 * time.Minute)
	if n := rl.cleanup(); n != 1 {
		t.Errorf("cleanup removed %d entries, want 1", n)
	}
	if d := rl.Allow("banned"); !d.Banned {
		t.Error("cleanup dropped an active ban")
	}
	rl.Close()
	rl.Close()
}

func TestGetClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}

	tests := []struct {
		name      string
		remote    string
		forwarded string
		realIP    string
		trusted   bool
		want      string
	}{
		{name: "no headers", remote: "203.0.113.9:5555", want: "203.0.113.9"},
		{name: "spoofed forwarded from untrusted peer", remote: "203.0.113.9:5555", forwarded: "1.2.3.4", trusted: true, want: "203.0.113.9"},
		{name: "spoofed real ip from untrusted peer", remote: "203.0.113.9:5555", realIP: "1.2.3.4", trusted: true, want: "203.0.113.9"},
		{name: "headers ignored without trusted list", remote: "10.0.0.1:5555", forwarded: "1.2.3.4", want: "10.0.0.1"},
		{name: "trusted proxy forwards client", remote: "10.0.0.1:5555", forwarded: "198.51.100.4", trusted: true, want: "198.51.100.4"},
		{name: "trusted hops are skipped", remote: "10.0.0.1:5555", forwarded: " 198.51.100.4 , 10.0.0.3", trusted: true, want: "198.51.100.4"},
		{name: "client cannot prepend a fake hop", remote: "192.0.2.1:80", forwarded: "1.2.3.4, 198.51.100.4", trusted: true, want: "198.51.100.4"},
		{name: "real ip from trusted proxy", remote: "10.0.0.1:5555", realIP: "198.51.100.5", trusted: true, want: "198.51.100.5"},
		{name: "trusted proxy without headers", remote: "10.0.0.1:5555", trusted: true, want: "10.0.0.1"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = tt.remote
		if tt.forwarded != "" {
			r.Header.Set("X-Forwarded-For", tt.forwarded)
		}
		if tt.realIP != "" {
			r.Header.Set("X-Real-IP", tt.realIP)
		}
		var nets []*net.IPNet
		if tt.trusted {
			nets = trusted
		}
		if got := GetClientIP(r, nets); got != tt.want {
			t.Errorf("%s: GetClientIP = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseTrustedProxies(t *testing.T) {
	nets, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "::1"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	if len(nets) != 2 {
		t.Fatalf("got %d networks, want 2", len(nets))
	}
	if _, err := ParseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Error("invalid entry accepted")
	}
	if _, err := ParseTrustedProxies([]string{"10.0.0.0/99"}); err == nil {
		t.Error("invalid CIDR accepted")
	}
}

func TestLimiterClientIPUsesConfig(t *testing.T) {
	nets, _ := ParseTrustedProxies([]string{"127.0.0.1"})
	rl := NewMemoryRateLimiter(&Config{WindowSize: time.Minute, MaxAttempts: 1, CleanupPeriod: time.Hour, TrustedProxies: nets})
	t.Cleanup(rl.Close)

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:9000"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := rl.ClientIP(r); got != "198.51.100.7" {
		t.Errorf("ClientIP = %q, want forwarded client", got)
	}
}
