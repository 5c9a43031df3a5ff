package models

import "time"

// EventType enumerates the security event categories the IDS records.
type EventType string

const (
	EventFailedLogin        EventType = "failed_login"
	EventRateLimitExceeded  EventType = "rate_limit_exceeded"
	EventSuspiciousPattern  EventType = "suspicious_pattern"
	EventUnauthorizedAccess EventType = "unauthorized_access"
	EventUnusualLocation    EventType = "unusual_location"
)

// Severity levels for security events.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is a single recorded security observation. Events are
// immutable once created and live in a bounded in-memory ring until evicted
// or swept by cleanup.
type SecurityEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Severity  Severity               `json:"severity"`
	IPAddress string                 `json:"ip_address"`
	UserAgent string                 `json:"user_agent"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Details   string                 `json:"details"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// RecommendedAction is what the caller should do about a threat score.
type RecommendedAction string

const (
	ActionMonitor RecommendedAction = "monitor"
	ActionAlert   RecommendedAction = "alert"
	ActionBlock   RecommendedAction = "block"
)

// ThreatScore summarizes how suspicious a client IP currently looks.
// It is derived on demand from the live counters and never stored.
type ThreatScore struct {
	Score             int               `json:"score"` // 0-100, higher = more suspicious
	Factors           []string          `json:"factors"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
}

// SuspiciousIP pairs an IP with its current threat score.
type SuspiciousIP struct {
	IP          string      `json:"ip"`
	ThreatScore ThreatScore `json:"threat_score"`
}

// IDSStats is the aggregate view served to the security dashboard.
type IDSStats struct {
	TotalEvents        int               `json:"total_events"`
	EventsLast24h      int               `json:"events_last_24h"`
	CriticalEvents     int               `json:"critical_events"`
	HighSeverityEvents int               `json:"high_severity_events"`
	SuspiciousIPs      int               `json:"suspicious_ips"`
	BlockedIPs         int               `json:"blocked_ips"`
	EventsByType       map[EventType]int `json:"events_by_type"`
}

// SuspiciousPatterns are the boolean flags a login-flow caller can report
// about a request it found unusual.
type SuspiciousPatterns struct {
	UnusualLocation bool `json:"unusual_location"`
	UnusualTime     bool `json:"unusual_time"`
	NewDevice       bool `json:"new_device"`
	RapidRequests   bool `json:"rapid_requests"`
}
