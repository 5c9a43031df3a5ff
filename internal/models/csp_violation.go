package models

import "time"

// CSPViolation is a normalized content-security-policy violation report.
type CSPViolation struct {
	ID                 string    `json:"id"`
	DocumentURI        string    `json:"document_uri"`
	ViolatedDirective  string    `json:"violated_directive"`
	EffectiveDirective string    `json:"effective_directive"`
	OriginalPolicy     string    `json:"original_policy"`
	BlockedURI         string    `json:"blocked_uri"`
	SourceFile         string    `json:"source_file,omitempty"`
	LineNumber         int       `json:"line_number,omitempty"`
	ColumnNumber       int       `json:"column_number,omitempty"`
	StatusCode         int       `json:"status_code,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	UserAgent          string    `json:"user_agent"`
	IPAddress          string    `json:"ip_address"`
}

// DirectiveCount is a directive with its violation frequency.
type DirectiveCount struct {
	Directive string `json:"directive"`
	Count     int    `json:"count"`
}

// URICount is a blocked URI with its violation frequency.
type URICount struct {
	URI   string `json:"uri"`
	Count int    `json:"count"`
}

// CSPStats is the aggregate CSP view served to the security dashboard.
type CSPStats struct {
	TotalViolations       int              `json:"total_violations"`
	ViolationsLast24h     int              `json:"violations_last_24h"`
	TopViolatedDirectives []DirectiveCount `json:"top_violated_directives"`
	TopBlockedURIs        []URICount       `json:"top_blocked_uris"`
	RecentViolations      []CSPViolation   `json:"recent_violations"`
}

// XSSCheck is the outcome of the per-IP XSS heuristic over recent violations.
type XSSCheck struct {
	IsAttempt bool     `json:"is_attempt"`
	Severity  Severity `json:"severity"`
	Details   []string `json:"details"`
}
