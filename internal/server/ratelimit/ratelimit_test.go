package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, cfg *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestTokenBucket_BurstThenRefill(t *testing.T) {
	start := time.Unix(0, 0)
	bucket := newTokenBucket(3, 1.0, start)

	for i := 0; i < 3; i++ {
		allowed, _, _ := bucket.take(start)
		assert.True(t, allowed, "request %d", i+1)
	}
	allowed, remaining, reset := bucket.take(start)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, start.Add(3*time.Second), reset)

	allowed, _, _ = bucket.take(start.Add(1100 * time.Millisecond))
	assert.True(t, allowed, "one token refills after a second")
}

func TestLimiter_Allow(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 5, DefaultWindow: time.Minute})

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("127.0.0.1", "/other", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
		assert.Equal(t, 4-i, info.Remaining)
	}

	allowed, info := l.Allow("127.0.0.1", "/other", "GET")
	assert.False(t, allowed)
	assert.InDelta(t, 12.0, info.RetryAfter.Seconds(), 0.001)

	allowed, _ = l.Allow("10.0.0.2", "/other", "GET")
	assert.True(t, allowed, "clients have separate buckets")
}

func TestLimiter_RefillsOverTime(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 60, DefaultWindow: time.Minute})
	for i := 0; i < 60; i++ {
		l.Allow("c", "/x", "GET")
	}
	allowed, _ := l.Allow("c", "/x", "GET")
	require.False(t, allowed)

	clock.advance(time.Second)
	allowed, _ = l.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_AccessLists(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"1.1.1.1": true},
		Blacklist:     map[string]bool{"6.6.6.6": true},
	})

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("1.1.1.1", "/x", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("6.6.6.6", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: false})
	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("c", "/api/optimize", "POST")
		require.True(t, allowed)
	}
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(20),
	})

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("c", "/api/optimize", "POST")
		require.True(t, allowed)
		assert.Equal(t, 20, info.Limit)
	}
	allowed, _ := l.Allow("c", "/api/optimize", "POST")
	assert.False(t, allowed, "burst of 3 exhausted")

	allowed, _ = l.Allow("c", "/api/cover-letter", "POST")
	assert.True(t, allowed, "cover letters have their own bucket")

	for i := 0; i < 50; i++ {
		allowed, _ := l.Allow("c", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("c", "/x", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowedCount)
}

func TestLimiter_CleanupRemovesIdleBuckets(t *testing.T) {
	l, clock := newTestLimiter(t, &Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	for i := 0; i < 3; i++ {
		l.Allow(fmt.Sprintf("client-%d", i), "/x", "GET")
	}
	require.Equal(t, 3, l.Len())

	clock.advance(30 * time.Minute)
	l.Allow("client-0", "/x", "GET")
	clock.advance(45 * time.Minute)
	l.cleanupBuckets()

	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/optimize", Method: "POST", Limit: 1},
		{Path: "/api/", Method: "GET", Limit: 2},
	}
	tests := []struct {
		name   string
		path   string
		method string
		limit  int
		found  bool
	}{
		{"exact", "/api/optimize", "POST", 1, true},
		{"prefix", "/api/anything", "GET", 2, true},
		{"health unlimited", "/health", "GET", 0, true},
		{"method mismatch", "/api/optimize", "GET", 2, true},
		{"no match", "/other", "POST", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if !tt.found {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.limit, got.Limit)
		})
	}
}

func TestLoadConfigFrom(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":    "50",
		"RATE_LIMIT_DEFAULT_WINDOW":   "30s",
		"RATE_LIMIT_AI_PER_HOUR":      "5",
		"RATE_LIMIT_WHITELIST":        "1.1.1.1, 2.2.2.2",
		"RATE_LIMIT_CLEANUP_INTERVAL": "bogus",
	}
	cfg := LoadConfigFrom(func(k string) string { return env[k] })

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval, "malformed values use the default")
	assert.True(t, cfg.Whitelist["2.2.2.2"])
	assert.Empty(t, cfg.Blacklist)
	require.NotEmpty(t, cfg.EndpointConfigs)
	assert.Equal(t, 5, cfg.EndpointConfigs[0].Limit)

	disabled := LoadConfigFrom(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, disabled.Enabled)
}
