// Package ids is the intrusion detection core: it records discrete security
// events, keeps per-IP failed-attempt and request-timestamp counters, and
// derives a 0-100 threat score with a recommended action.
//
// All state is in-memory with process lifetime. A restart resets every
// counter; that is accepted behavior, not something to paper over.
package ids

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-api/internal/config"
	"portfolio-api/internal/models"
	"portfolio-api/internal/util"
)

// EventHook receives every recorded event after it is stored. Hooks run
// under the tracker lock and must not call back into the tracker.
type EventHook func(models.SecurityEvent)

// Tracker is the threat-scoring engine. Safe for concurrent use; the score
// calculation reads its counters under the same lock as the writes that
// feed it, so a returned score always reflects a consistent snapshot.
type Tracker struct {
	mu             sync.Mutex
	cfg            config.SecurityConfig
	events         *eventRing
	failedAttempts map[string]int
	suspiciousIPs  map[string]struct{}
	requestTimes   map[string][]time.Time
	hooks          []EventHook
	now            func() time.Time
}

// NewTracker builds a tracker around the configured thresholds.
func NewTracker(cfg config.SecurityConfig) *Tracker {
	return &Tracker{
		cfg:            cfg,
		events:         newEventRing(cfg.MaxEvents),
		failedAttempts: make(map[string]int),
		suspiciousIPs:  make(map[string]struct{}),
		requestTimes:   make(map[string][]time.Time),
		now:            time.Now,
	}
}

// AddHook registers a subscriber for recorded events (alerting, archival).
func (t *Tracker) AddHook(hook EventHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// LogEvent records a security event. ID and timestamp are assigned here;
// the event is immutable afterwards.
func (t *Tracker) LogEvent(eventType models.EventType, severity models.Severity, ip, userAgent, details string, opts ...EventOption) models.SecurityEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logEventLocked(eventType, severity, ip, userAgent, details, opts...)
}

// EventOption fills the optional event fields.
type EventOption func(*models.SecurityEvent)

func WithUserID(userID string) EventOption {
	return func(e *models.SecurityEvent) { e.UserID = userID }
}

func WithEmail(email string) EventOption {
	return func(e *models.SecurityEvent) { e.Email = email }
}

func WithMetadata(metadata map[string]interface{}) EventOption {
	return func(e *models.SecurityEvent) { e.Metadata = metadata }
}

func (t *Tracker) logEventLocked(eventType models.EventType, severity models.Severity, ip, userAgent, details string, opts ...EventOption) models.SecurityEvent {
	if userAgent == "" {
		userAgent = "unknown"
	}
	event := models.SecurityEvent{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		Severity:  severity,
		IPAddress: ip,
		UserAgent: userAgent,
		Details:   details,
		Timestamp: t.now(),
	}
	for _, opt := range opts {
		opt(&event)
	}

	t.events.push(event)

	util.LogSeverity(string(severity), "Security event recorded",
		util.String("event_id", event.ID),
		util.String("type", string(eventType)),
		util.String("severity", string(severity)),
		util.String("ip", ip),
		util.String("details", details),
	)

	for _, hook := range t.hooks {
		hook(event)
	}
	return event
}

// TrackFailedLogin increments the IP's failed counter, records the event,
// marks the IP suspicious once the threshold is reached, and returns the
// recomputed score.
func (t *Tracker) TrackFailedLogin(ip, email, userAgent string) models.ThreatScore {
	t.mu.Lock()
	defer t.mu.Unlock()

	newCount := t.failedAttempts[ip] + 1
	t.failedAttempts[ip] = newCount

	severity := models.SeverityMedium
	if newCount >= t.cfg.FailedLoginThreshold {
		severity = models.SeverityHigh
	}

	opts := []EventOption{WithMetadata(map[string]interface{}{"attempt_count": newCount})}
	if email != "" {
		opts = append(opts, WithEmail(email))
	}
	t.logEventLocked(models.EventFailedLogin, severity, ip, userAgent,
		fmt.Sprintf("Failed login attempt %d from IP %s", newCount, ip), opts...)

	if newCount >= t.cfg.FailedLoginThreshold {
		t.suspiciousIPs[ip] = struct{}{}
	}

	return t.scoreLocked(ip)
}

// TrackRequest appends a request timestamp for the IP, prunes everything
// outside the rate window, and reports whether the request is allowed.
func (t *Tracker) TrackRequest(ip string) (bool, models.ThreatScore) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	recent := pruneTimestamps(t.requestTimes[ip], now, t.cfg.RateLimitWindow)
	recent = append(recent, now)
	t.requestTimes[ip] = recent

	allowed := len(recent) <= t.cfg.MaxRequestsPerWindow
	if !allowed {
		t.logEventLocked(models.EventRateLimitExceeded, models.SeverityMedium, ip, "",
			fmt.Sprintf("Rate limit exceeded: %d requests in %s", len(recent), t.cfg.RateLimitWindow),
			WithMetadata(map[string]interface{}{
				"request_count": len(recent),
				"window":        t.cfg.RateLimitWindow.String(),
			}))
	}

	return allowed, t.scoreLocked(ip)
}

// DetectSuspiciousPattern records a suspicious_pattern event for any set
// flag. Three or more flags escalate the severity to high.
func (t *Tracker) DetectSuspiciousPattern(ip, userID string, patterns models.SuspiciousPatterns) models.ThreatScore {
	t.mu.Lock()
	defer t.mu.Unlock()

	var factors []string
	if patterns.UnusualLocation {
		factors = append(factors, "Access from unusual geographic location")
	}
	if patterns.UnusualTime {
		factors = append(factors, "Access at unusual time")
	}
	if patterns.NewDevice {
		factors = append(factors, "Access from new device")
	}
	if patterns.RapidRequests {
		factors = append(factors, "Rapid succession of requests")
	}

	if len(factors) > 0 {
		severity := models.SeverityMedium
		if len(factors) >= 3 {
			severity = models.SeverityHigh
		}
		opts := []EventOption{WithMetadata(map[string]interface{}{"patterns": factors})}
		if userID != "" {
			opts = append(opts, WithUserID(userID))
		}
		t.logEventLocked(models.EventSuspiciousPattern, severity, ip, "",
			"Suspicious pattern detected: "+strings.Join(factors, ", "), opts...)
	}

	return t.scoreLocked(ip)
}

// CalculateThreatScore derives the current score for an IP. Recomputing with
// unchanged counters yields the same result.
func (t *Tracker) CalculateThreatScore(ip string) models.ThreatScore {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scoreLocked(ip)
}

// scoreLocked is the weighted sum behind every score. The weights and their
// order are fixed: failed logins contribute min(count*15, 50); a suspicious
// mark adds 30; exceeding the request window adds 20; more than five events
// in the last hour adds 15. Total clamps to 100.
func (t *Tracker) scoreLocked(ip string) models.ThreatScore {
	score := 0
	var factors []string
	now := t.now()

	if failed := t.failedAttempts[ip]; failed > 0 {
		contribution := failed * 15
		if contribution > 50 {
			contribution = 50
		}
		score += contribution
		factors = append(factors, fmt.Sprintf("%d failed login(s)", failed))
	}

	if _, ok := t.suspiciousIPs[ip]; ok {
		score += 30
		factors = append(factors, "Marked as suspicious")
	}

	recentRequests := len(pruneTimestamps(t.requestTimes[ip], now, t.cfg.RateLimitWindow))
	if recentRequests > t.cfg.MaxRequestsPerWindow {
		score += 20
		factors = append(factors, fmt.Sprintf("%d requests in 1 minute", recentRequests))
	}

	hourAgo := now.Add(-time.Hour)
	recentEvents := 0
	for i := 0; i < t.events.len(); i++ {
		e := t.events.at(i)
		if e.IPAddress == ip && e.Timestamp.After(hourAgo) {
			recentEvents++
		}
	}
	if recentEvents > 5 {
		score += 15
		factors = append(factors, fmt.Sprintf("%d security events in last hour", recentEvents))
	}

	if score > 100 {
		score = 100
	}

	action := models.ActionMonitor
	switch {
	case score >= t.cfg.BlockScore:
		action = models.ActionBlock
	case score >= t.cfg.SuspiciousScore:
		action = models.ActionAlert
	}

	return models.ThreatScore{Score: score, Factors: factors, RecommendedAction: action}
}

// IsBlocked reports whether the IP's current score recommends blocking.
func (t *Tracker) IsBlocked(ip string) bool {
	return t.CalculateThreatScore(ip).RecommendedAction == models.ActionBlock
}

// BlockIP manually marks an IP suspicious and records a critical event.
func (t *Tracker) BlockIP(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspiciousIPs[ip] = struct{}{}
	t.logEventLocked(models.EventUnauthorizedAccess, models.SeverityCritical, ip, "",
		fmt.Sprintf("IP %s manually blocked", ip))
}

// UnblockIP clears the suspicious flag, failed counter, and timestamp
// history for the IP in one step.
func (t *Tracker) UnblockIP(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.suspiciousIPs, ip)
	delete(t.failedAttempts, ip)
	delete(t.requestTimes, ip)
}

// Cleanup evicts failed-login counters with no failed-login event in the
// retention period, and request-timestamp lists that are empty after window
// pruning. Runs on the janitor interval.
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.cfg.EventRetention)

	for ip := range t.failedAttempts {
		var last time.Time
		for i := 0; i < t.events.len(); i++ {
			e := t.events.at(i)
			if e.IPAddress == ip && e.Type == models.EventFailedLogin {
				last = e.Timestamp
			}
		}
		if last.IsZero() || last.Before(cutoff) {
			delete(t.failedAttempts, ip)
		}
	}

	for ip, stamps := range t.requestTimes {
		recent := pruneTimestamps(stamps, now, t.cfg.RateLimitWindow)
		if len(recent) == 0 {
			delete(t.requestTimes, ip)
		} else {
			t.requestTimes[ip] = recent
		}
	}

	util.Info("IDS cleanup completed",
		util.Int("failed_counters", len(t.failedAttempts)),
		util.Int("request_windows", len(t.requestTimes)),
	)
}

// RecentEvents returns up to limit events, most recent first.
func (t *Tracker) RecentEvents(limit int) []models.SecurityEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > t.events.len() {
		limit = t.events.len()
	}
	out := make([]models.SecurityEvent, 0, limit)
	for i := t.events.len() - 1; i >= t.events.len()-limit; i-- {
		out = append(out, t.events.at(i))
	}
	return out
}

// EventsBySeverity returns the retained events at the given severity,
// oldest first.
func (t *Tracker) EventsBySeverity(severity models.Severity) []models.SecurityEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events.filter(func(e models.SecurityEvent) bool { return e.Severity == severity })
}

// SuspiciousIPs returns every marked IP with its current score.
func (t *Tracker) SuspiciousIPs() []models.SuspiciousIP {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.SuspiciousIP, 0, len(t.suspiciousIPs))
	for ip := range t.suspiciousIPs {
		out = append(out, models.SuspiciousIP{IP: ip, ThreatScore: t.scoreLocked(ip)})
	}
	return out
}

// Stats aggregates the tracker's view for the dashboard.
func (t *Tracker) Stats() models.IDSStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	dayAgo := t.now().Add(-24 * time.Hour)
	stats := models.IDSStats{
		TotalEvents:   t.events.len(),
		SuspiciousIPs: len(t.suspiciousIPs),
		EventsByType: map[models.EventType]int{
			models.EventFailedLogin:        0,
			models.EventRateLimitExceeded:  0,
			models.EventSuspiciousPattern:  0,
			models.EventUnauthorizedAccess: 0,
		},
	}

	for i := 0; i < t.events.len(); i++ {
		e := t.events.at(i)
		if e.Timestamp.After(dayAgo) {
			stats.EventsLast24h++
		}
		switch e.Severity {
		case models.SeverityCritical:
			stats.CriticalEvents++
		case models.SeverityHigh:
			stats.HighSeverityEvents++
		}
		stats.EventsByType[e.Type]++
	}

	for ip := range t.suspiciousIPs {
		if t.scoreLocked(ip).RecommendedAction == models.ActionBlock {
			stats.BlockedIPs++
		}
	}
	return stats
}

// SetClock overrides the tracker's time source. Tests only.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

func pruneTimestamps(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	out := stamps[:0:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			out = append(out, ts)
		}
	}
	return out
}
