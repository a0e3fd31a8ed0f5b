// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration
type Config struct {
	WindowSize    time.Duration // Time window for rate limiting
	MaxRequests   int           // Maximum requests per window
	CleanupPeriod time.Duration // How often to clean up old entries
	BanDuration   time.Duration // Block after exceeding the limit; 0 only waits for the window
	// TrustProxyHeaders keys clients by X-Forwarded-For / X-Real-IP. Enable
	// only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// DefaultAPIConfig returns the limits for the inference endpoints.
func DefaultAPIConfig(perMinute int) *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxRequests:   perMinute,
		CleanupPeriod: 5 * time.Minute,
	}
}

// requestRecord tracks requests for an IP/identifier
type requestRecord struct {
	Count     int
	FirstSeen time.Time
	BannedAt  *time.Time
}

// MemoryRateLimiter implements in-memory fixed-window rate limiting
type MemoryRateLimiter struct {
	config   *Config
	requests map[string]*requestRecord
	mu       sync.Mutex
	stopCh   chan struct{}
	once     sync.Once
	now      func() time.Time
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	limiter := &MemoryRateLimiter{
		config:   config,
		requests: make(map[string]*requestRecord),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}

	if config.CleanupPeriod > 0 {
		go limiter.cleanupLoop()
	}

	return limiter
}

// Info describes the limiter state after a call to Allow.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

// Allow checks if a request should be allowed
func (rl *MemoryRateLimiter) Allow(identifier string) Info {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	limit := rl.config.MaxRequests
	record, exists := rl.requests[identifier]

	if exists && record.BannedAt != nil {
		if until := record.BannedAt.Add(rl.config.BanDuration); now.Before(until) {
			return Info{Limit: limit, ResetTime: until, RetryAfter: until.Sub(now), Banned: true}
		}
		exists = false
	}

	if !exists || now.Sub(record.FirstSeen) >= rl.config.WindowSize {
		record = &requestRecord{FirstSeen: now}
		rl.requests[identifier] = record
	}

	reset := record.FirstSeen.Add(rl.config.WindowSize)
	if record.Count >= limit {
		if rl.config.BanDuration > 0 {
			banTime := now
			record.BannedAt = &banTime
			return Info{Limit: limit, ResetTime: now.Add(rl.config.BanDuration), RetryAfter: rl.config.BanDuration, Banned: true}
		}
		return Info{Limit: limit, ResetTime: reset, RetryAfter: reset.Sub(now)}
	}

	record.Count++
	return Info{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - record.Count,
		ResetTime: reset,
	}
}

// Len reports how many identifiers are tracked.
func (rl *MemoryRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
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

// cleanup removes expired records
func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for identifier, record := range rl.requests {
		if record.BannedAt != nil {
			if now.Sub(*record.BannedAt) >= rl.config.BanDuration {
				delete(rl.requests, identifier)
			}
			continue
		}
		if now.Sub(record.FirstSeen) >= rl.config.WindowSize {
			delete(rl.requests, identifier)
		}
	}
}

// Close stops the cleanup goroutine
func (rl *MemoryRateLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// ClientIP keys r by proxy headers when the limiter trusts them, else by
// the connection's remote address.
func (rl *MemoryRateLimiter) ClientIP(r *http.Request) string {
	if rl.config.TrustProxyHeaders {
		return GetClientIP(r)
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// GetClientIP extracts the real client IP from request
func GetClientIP(r *http.Request) string {
	// Check for forwarded IP (behind proxy/load balancer)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ip := parseFirstIP(forwarded); ip != "" {
			return ip
		}
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return remoteIP(r)
}

// parseFirstIP extracts the first IP from a comma-separated list
func parseFirstIP(forwarded string) string {
	first, _, _ := strings.Cut(forwarded, ",")
	return strings.TrimSpace(first)
}
