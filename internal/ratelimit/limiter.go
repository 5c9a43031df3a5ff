// Package ratelimit implements per-category fixed-window rate limiting keyed
// by client IP, with an explicit block period once a window's budget is
// exhausted.
package ratelimit

import (
	"sync"
	"time"

	"portfolio-api/internal/config"
)

// Result is the outcome of a Consume call. RetryAfter is advisory; nothing
// here sleeps.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

type windowState struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

// Limiter tracks fixed-window counters per category and client. All state is
// in-memory and process-local; a restart resets every window.
type Limiter struct {
	mu      sync.Mutex
	rules   map[string]config.RateLimitRule
	windows map[string]map[string]*windowState // category -> client -> state
	now     func() time.Time
}

// NewLimiter builds a limiter from the category rule table.
func NewLimiter(rules map[string]config.RateLimitRule) *Limiter {
	l := &Limiter{
		rules:   make(map[string]config.RateLimitRule, len(rules)),
		windows: make(map[string]map[string]*windowState, len(rules)),
		now:     time.Now,
	}
	for category, rule := range rules {
		l.rules[category] = rule
		l.windows[category] = make(map[string]*windowState)
	}
	return l
}

// Consume spends one point of the category's window budget for clientID.
// Unknown categories fall back to the "api" rule; an empty client id is
// treated as the literal "unknown". Consume never fails: the only negative
// outcome is a Blocked result with the remaining block time.
func (l *Limiter) Consume(category, clientID string) Result {
	if clientID == "" {
		clientID = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rule, ok := l.rules[category]
	if !ok {
		category = "api"
		rule = l.rules[category]
	}

	clients := l.windows[category]
	if clients == nil {
		clients = make(map[string]*windowState)
		l.windows[category] = clients
	}

	now := l.now()
	state := clients[clientID]
	if state == nil {
		state = &windowState{windowStart: now}
		clients[clientID] = state
	}

	// An active block short-circuits without consuming budget.
	if now.Before(state.blockedUntil) {
		return Result{
			Allowed:    false,
			Limit:      rule.Points,
			RetryAfter: state.blockedUntil.Sub(now),
			Reset:      state.blockedUntil,
		}
	}

	if now.Sub(state.windowStart) >= rule.Duration {
		state.windowStart = now
		state.count = 0
	}

	if state.count >= rule.Points {
		state.blockedUntil = now.Add(rule.BlockDuration)
		return Result{
			Allowed:    false,
			Limit:      rule.Points,
			RetryAfter: rule.BlockDuration,
			Reset:      state.blockedUntil,
		}
	}

	state.count++
	return Result{
		Allowed:   true,
		Limit:     rule.Points,
		Remaining: rule.Points - state.count,
		Reset:     state.windowStart.Add(rule.Duration),
	}
}

// Reset clears the window and any block for one client in one category.
// Used by the admin override.
func (l *Limiter) Reset(category, clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if clients := l.windows[category]; clients != nil {
		delete(clients, clientID)
	}
}

// Cleanup drops windows that have fully expired and are not blocked. Runs on
// the janitor interval, never on the request path.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for category, clients := range l.windows {
		rule := l.rules[category]
		for id, state := range clients {
			if now.Sub(state.windowStart) >= rule.Duration && now.After(state.blockedUntil) {
				delete(clients, id)
				removed++
			}
		}
	}
	return removed
}

// SetClock overrides the limiter's time source. Tests only.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
