// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	WindowSize    time.Duration // Time window for counting attempts
	MaxAttempts   int           // Attempts allowed per window
	CleanupPeriod time.Duration // How often expired entries are dropped
	BanDuration   time.Duration // Lockout after the limit is exceeded
	// Peers whose X-Forwarded-For and X-Real-IP headers are believed.
	// Empty means the connection's remote address is always the client.
	TrustedProxies []*net.IPNet
}

// DefaultAuthConfig suits sign-up and login.
func DefaultAuthConfig() *Config {
	return &Config{
		WindowSize:    15 * time.Minute,
		MaxAttempts:   10,
		CleanupPeriod: 30 * time.Minute,
		BanDuration:   30 * time.Minute,
	}
}

type window struct {
	count    int
	start    time.Time
	bannedAt time.Time
}

func (w *window) banned(now time.Time, ban time.Duration) bool {
	return !w.bannedAt.IsZero() && now.Sub(w.bannedAt) < ban
}

// Decision describes the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

// MemoryRateLimiter counts attempts per key in fixed windows. A key that goes
// over the limit is banned for BanDuration.
type MemoryRateLimiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stopCh    chan struct{}
	closeOnce sync.Once
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultAuthConfig()
	}
	rl := &MemoryRateLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*window),
		stopCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow records an attempt for key and reports whether it may proceed.
func (rl *MemoryRateLimiter) Allow(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cfg := rl.config
	w, ok := rl.windows[key]

	switch {
	case ok && w.banned(now, cfg.BanDuration):
		until := w.bannedAt.Add(cfg.BanDuration)
		return Decision{Limit: cfg.MaxAttempts, ResetTime: until, RetryAfter: until.Sub(now), Banned: true}
	case !ok || now.Sub(w.start) > cfg.WindowSize:
		w = &window{start: now}
		rl.windows[key] = w
	}

	w.count++
	if w.count > cfg.MaxAttempts {
		w.bannedAt = now
		return Decision{
			Limit:      cfg.MaxAttempts,
			ResetTime:  now.Add(cfg.BanDuration),
			RetryAfter: cfg.BanDuration,
			Banned:     true,
		}
	}
	return Decision{
		Allowed:   true,
		Limit:     cfg.MaxAttempts,
		Remaining: cfg.MaxAttempts - w.count,
		ResetTime: w.start.Add(cfg.WindowSize),
	}
}

// Reset forgets key, typically after a successful login.
func (rl *MemoryRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, w := range rl.windows {
		if w.banned(now, rl.config.BanDuration) {
			continue
		}
		if now.Sub(w.start) > rl.config.WindowSize {
			delete(rl.windows, key)
			removed++
		}
	}
	return removed
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *MemoryRateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stopCh) })
}

// ParseTrustedProxies turns CIDRs or bare IPs into networks.
func ParseTrustedProxies(specs []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		if !strings.Contains(spec, "/") {
			ip := net.ParseIP(spec)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", spec)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", spec, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// ClientIP resolves the client of r using the limiter's trusted proxies.
func (rl *MemoryRateLimiter) ClientIP(r *http.Request) string {
	return GetClientIP(r, rl.config.TrustedProxies)
}

// GetClientIP returns the remote address of r. Proxy headers are only
// honored when that address is in trusted; X-Forwarded-For is then read
// right to left and the first hop outside trusted wins.
func GetClientIP(r *http.Request, trusted []*net.IPNet) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !isTrusted(peer, trusted) {
		return peer
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !isTrusted(hop, trusted) {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}

func isTrusted(addr string, trusted []*net.IPNet) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
