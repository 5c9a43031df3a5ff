package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/config"
)

func newTestLimiter() (*Limiter, *time.Time) {
	l := NewLimiter(config.DefaultSecurityConfig().RateLimits)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return current })
	return l, &current
}

func TestConsumeWithinBudget(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 10; i++ {
		result := l.Consume("chat", "1.2.3.4")
		require.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 10, result.Limit)
		assert.Equal(t, 10-(i+1), result.Remaining)
	}
}

func TestConsumeExhaustionBlocks(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 10; i++ {
		l.Consume("chat", "1.2.3.4")
	}

	result := l.Consume("chat", "1.2.3.4")
	require.False(t, result.Allowed)
	assert.Equal(t, 120*time.Second, result.RetryAfter)
}

func TestBlockedRequestsDoNotConsume(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 11; i++ {
		l.Consume("chat", "1.2.3.4")
	}

	// Hammering during the block must not extend it.
	*clock = clock.Add(30 * time.Second)
	for i := 0; i < 5; i++ {
		result := l.Consume("chat", "1.2.3.4")
		require.False(t, result.Allowed)
		assert.Equal(t, 90*time.Second, result.RetryAfter)
	}
}

func TestBlockExpiresAndWindowResets(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 11; i++ {
		l.Consume("chat", "1.2.3.4")
	}

	*clock = clock.Add(121 * time.Second)
	result := l.Consume("chat", "1.2.3.4")
	assert.True(t, result.Allowed)
	assert.Equal(t, 9, result.Remaining)
}

func TestWindowResetAfterDuration(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 10; i++ {
		l.Consume("chat", "1.2.3.4")
	}

	*clock = clock.Add(61 * time.Second)
	result := l.Consume("chat", "1.2.3.4")
	assert.True(t, result.Allowed)
	assert.Equal(t, 9, result.Remaining)
}

func TestUnknownCategoryFallsBackToAPI(t *testing.T) {
	l, _ := newTestLimiter()

	result := l.Consume("nonexistent", "1.2.3.4")
	require.True(t, result.Allowed)
	assert.Equal(t, 30, result.Limit)
}

func TestEmptyClientIDSharesBucket(t *testing.T) {
	l, _ := newTestLimiter()

	first := l.Consume("chat", "")
	second := l.Consume("chat", "unknown")
	assert.Equal(t, 9, first.Remaining)
	assert.Equal(t, 8, second.Remaining)
}

func TestClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 11; i++ {
		l.Consume("chat", "1.2.3.4")
	}

	result := l.Consume("chat", "5.6.7.8")
	assert.True(t, result.Allowed)
}

func TestReset(t *testing.T) {
	l, _ := newTestLimiter()

	for i := 0; i < 11; i++ {
		l.Consume("chat", "1.2.3.4")
	}
	l.Reset("chat", "1.2.3.4")

	result := l.Consume("chat", "1.2.3.4")
	assert.True(t, result.Allowed)
	assert.Equal(t, 9, result.Remaining)
}

func TestCleanupDropsExpiredWindows(t *testing.T) {
	l, clock := newTestLimiter()

	l.Consume("chat", "1.2.3.4")
	l.Consume("api", "5.6.7.8")

	*clock = clock.Add(2 * time.Minute)
	removed := l.Cleanup()
	assert.Equal(t, 2, removed)
}

func TestCleanupKeepsBlockedClients(t *testing.T) {
	l, clock := newTestLimiter()

	for i := 0; i < 6; i++ {
		l.Consume("contact", "1.2.3.4")
	}

	// The contact block lasts 600s; a sweep at 400s must keep it.
	*clock = clock.Add(400 * time.Second)
	l.Cleanup()

	result := l.Consume("contact", "1.2.3.4")
	assert.False(t, result.Allowed)
}
