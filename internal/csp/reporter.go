// Package csp ingests content-security-policy violation reports, keeps a
// bounded in-memory history, and derives a per-IP XSS-attempt heuristic.
//
// CSP violations are a noisy signal: ad blockers and misconfigured browser
// extensions generate them too. Severity therefore escalates only with
// corroborating signals (volume, inline/eval indicators), never on a single
// violation.
package csp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-api/internal/config"
	"portfolio-api/internal/models"
	"portfolio-api/internal/util"
)

// Reporter stores normalized violations and answers aggregate queries.
// Safe for concurrent use.
type Reporter struct {
	mu         sync.Mutex
	cfg        config.SecurityConfig
	violations []models.CSPViolation
	now        func() time.Time
}

// NewReporter builds a reporter with the configured bounds.
func NewReporter(cfg config.SecurityConfig) *Reporter {
	return &Reporter{cfg: cfg, now: time.Now}
}

// LogViolation normalizes a loosely-typed report into a CSPViolation and
// appends it to the bounded store. Browsers disagree on field naming, so
// every field is resolved through an ordered candidate-key list; missing
// string fields default to "unknown" rather than failing the call.
func (r *Reporter) LogViolation(report map[string]interface{}, userAgent, ip string) models.CSPViolation {
	r.mu.Lock()
	defer r.mu.Unlock()

	violation := models.CSPViolation{
		ID:                 "csp_" + uuid.NewString(),
		DocumentURI:        stringField(report, "unknown", "document-uri", "documentUri"),
		ViolatedDirective:  stringField(report, "unknown", "violated-directive", "violatedDirective"),
		EffectiveDirective: stringField(report, "unknown", "effective-directive", "effectiveDirective"),
		OriginalPolicy:     stringField(report, "", "original-policy", "originalPolicy"),
		BlockedURI:         stringField(report, "unknown", "blocked-uri", "blockedUri"),
		SourceFile:         stringField(report, "", "source-file", "sourceFile"),
		LineNumber:         intField(report, "line-number", "lineNumber"),
		ColumnNumber:       intField(report, "column-number", "columnNumber"),
		StatusCode:         intField(report, "status-code", "statusCode"),
		Timestamp:          r.now(),
		UserAgent:          userAgent,
		IPAddress:          ip,
	}

	r.violations = append(r.violations, violation)
	if len(r.violations) > r.cfg.MaxViolations {
		r.violations = r.violations[len(r.violations)-r.cfg.MaxViolations:]
	}

	util.Warn("CSP violation recorded",
		util.String("violation_id", violation.ID),
		util.String("directive", violation.ViolatedDirective),
		util.String("blocked_uri", violation.BlockedURI),
		util.String("source_file", violation.SourceFile),
		util.String("ip", ip),
	)
	return violation
}

// RecentViolations returns up to limit violations, most recent first.
func (r *Reporter) RecentViolations(limit int) []models.CSPViolation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentLocked(limit)
}

func (r *Reporter) recentLocked(limit int) []models.CSPViolation {
	if limit <= 0 || limit > len(r.violations) {
		limit = len(r.violations)
	}
	out := make([]models.CSPViolation, 0, limit)
	for i := len(r.violations) - 1; i >= len(r.violations)-limit; i-- {
		out = append(out, r.violations[i])
	}
	return out
}

// ViolationsByIP returns every stored violation from one client.
func (r *Reporter) ViolationsByIP(ip string) []models.CSPViolation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.CSPViolation
	for _, v := range r.violations {
		if v.IPAddress == ip {
			out = append(out, v)
		}
	}
	return out
}

// ViolationsByDirective returns violations whose violated or effective
// directive contains the given directive name.
func (r *Reporter) ViolationsByDirective(directive string) []models.CSPViolation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.CSPViolation
	for _, v := range r.violations {
		if strings.Contains(v.ViolatedDirective, directive) || strings.Contains(v.EffectiveDirective, directive) {
			out = append(out, v)
		}
	}
	return out
}

// DetectXSSAttempt examines the IP's violations from the last hour.
// script-src violations alone rate medium; inline/eval indicators or more
// than five violations in the hour rate high.
func (r *Reporter) DetectXSSAttempt(ip string) models.XSSCheck {
	r.mu.Lock()
	defer r.mu.Unlock()

	hourAgo := r.now().Add(-time.Hour)
	var recent []models.CSPViolation
	for _, v := range r.violations {
		if v.IPAddress == ip && v.Timestamp.After(hourAgo) {
			recent = append(recent, v)
		}
	}

	check := models.XSSCheck{Severity: models.SeverityLow}

	scriptViolations := 0
	inlineViolations := 0
	for _, v := range recent {
		if strings.Contains(v.EffectiveDirective, "script-src") {
			scriptViolations++
		}
		if strings.Contains(v.BlockedURI, "inline") || strings.Contains(v.BlockedURI, "eval") {
			inlineViolations++
		}
	}

	if scriptViolations > 0 {
		check.Details = append(check.Details, fmt.Sprintf("%d script-src violations", scriptViolations))
		check.Severity = models.SeverityMedium
	}
	if inlineViolations > 0 {
		check.Details = append(check.Details, fmt.Sprintf("%d inline/eval attempts", inlineViolations))
		check.Severity = models.SeverityHigh
	}
	if len(recent) > 5 {
		check.Details = append(check.Details, fmt.Sprintf("%d violations in last hour", len(recent)))
		check.Severity = models.SeverityHigh
	}

	check.IsAttempt = len(check.Details) > 0
	return check
}

// Stats aggregates the stored violations for the dashboard.
func (r *Reporter) Stats() models.CSPStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	dayAgo := r.now().Add(-24 * time.Hour)
	last24h := 0
	directiveCounts := make(map[string]int)
	uriCounts := make(map[string]int)
	for _, v := range r.violations {
		if v.Timestamp.After(dayAgo) {
			last24h++
		}
		directive := v.EffectiveDirective
		if directive == "" || directive == "unknown" {
			directive = v.ViolatedDirective
		}
		directiveCounts[directive]++
		uriCounts[v.BlockedURI]++
	}

	return models.CSPStats{
		TotalViolations:       len(r.violations),
		ViolationsLast24h:     last24h,
		TopViolatedDirectives: topDirectives(directiveCounts, 10),
		TopBlockedURIs:        topURIs(uriCounts, 10),
		RecentViolations:      r.recentLocked(10),
	}
}

// Cleanup drops violations older than the retention period.
func (r *Reporter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.cfg.ViolationRetention)
	kept := r.violations[:0]
	for _, v := range r.violations {
		if v.Timestamp.After(cutoff) {
			kept = append(kept, v)
		}
	}
	r.violations = kept

	util.Info("CSP cleanup completed", util.Int("violations", len(r.violations)))
}

// SetClock overrides the reporter's time source. Tests only.
func (r *Reporter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func topDirectives(counts map[string]int, limit int) []models.DirectiveCount {
	out := make([]models.DirectiveCount, 0, len(counts))
	for directive, count := range counts {
		out = append(out, models.DirectiveCount{Directive: directive, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Directive < out[j].Directive
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func topURIs(counts map[string]int, limit int) []models.URICount {
	out := make([]models.URICount, 0, len(counts))
	for uri, count := range counts {
		out = append(out, models.URICount{URI: uri, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].URI < out[j].URI
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// stringField resolves a string through an ordered candidate-key list.
func stringField(report map[string]interface{}, fallback string, keys ...string) string {
	for _, key := range keys {
		if raw, ok := report[key]; ok {
			if s, ok := raw.(string); ok && s != "" {
				return s
			}
		}
	}
	return fallback
}

// intField resolves a number that may arrive as a JSON float, an int, or a
// numeric string.
func intField(report map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		raw, ok := report[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int(v)
		case int:
			return v
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return 0
}
