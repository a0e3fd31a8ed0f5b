package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg *Config) (*MemoryRateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	cfg.CleanupPeriod = 0
	rl := NewMemoryRateLimiter(cfg)
	rl.now = clock.Now
	return rl, clock
}

func TestAllow_WindowLimit(t *testing.T) {
	rl, clock := newTestLimiter(DefaultAPIConfig(3))
	defer rl.Close()

	for i := 0; i < 3; i++ {
		info := rl.Allow("1.2.3.4")
		require.True(t, info.Allowed, "request %d", i)
		assert.Equal(t, 2-i, info.Remaining)
		assert.Equal(t, 3, info.Limit)
	}

	blocked := rl.Allow("1.2.3.4")
	assert.False(t, blocked.Allowed)
	assert.False(t, blocked.Banned)
	assert.Equal(t, time.Minute, blocked.RetryAfter)

	// Other clients are unaffected.
	assert.True(t, rl.Allow("5.6.7.8").Allowed)

	clock.Advance(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4").Allowed)
}

func TestAllow_Ban(t *testing.T) {
	rl, clock := newTestLimiter(&Config{WindowSize: time.Minute, MaxRequests: 1, BanDuration: 10 * time.Minute})
	defer rl.Close()

	require.True(t, rl.Allow("a").Allowed)
	info := rl.Allow("a")
	assert.True(t, info.Banned)
	assert.Equal(t, 10*time.Minute, info.RetryAfter)

	clock.Advance(2 * time.Minute)
	info = rl.Allow("a")
	assert.True(t, info.Banned)
	assert.Equal(t, 8*time.Minute, info.RetryAfter)

	clock.Advance(8 * time.Minute)
	assert.True(t, rl.Allow("a").Allowed)
}

func TestCleanup(t *testing.T) {
	rl, clock := newTestLimiter(DefaultAPIConfig(5))
	defer rl.Close()

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.Len())

	clock.Advance(2 * time.Minute)
	rl.cleanup()
	assert.Zero(t, rl.Len())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.3")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}

func TestClientIP_IgnoresProxyHeadersUnlessTrusted(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")

	rl, _ := newTestLimiter(DefaultAPIConfig(5))
	defer rl.Close()
	assert.Equal(t, "10.0.0.1", rl.ClientIP(r))

	cfg := DefaultAPIConfig(5)
	cfg.TrustProxyHeaders = true
	trusting, _ := newTestLimiter(cfg)
	defer trusting.Close()
	assert.Equal(t, "203.0.113.9", trusting.ClientIP(r))
}
