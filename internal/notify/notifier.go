// Package notify formats and emits security notifications. Delivery is
// stubbed: everything goes through the structured log sink, with email and
// SMS left to a real provider integration.
package notify

import (
	"fmt"
	"time"

	"portfolio-api/internal/config"
	"portfolio-api/internal/models"
	"portfolio-api/internal/util"
)

var severityRank = map[models.Severity]int{
	models.SeverityLow:      1,
	models.SeverityMedium:   2,
	models.SeverityHigh:     3,
	models.SeverityCritical: 4,
}

// Notifier sends alerts for events at or above the configured severity
// threshold.
type Notifier struct {
	cfg config.NotifyConfig
}

func NewNotifier(cfg config.NotifyConfig) *Notifier {
	return &Notifier{cfg: cfg}
}

// Alert emits a security alert when the event clears the threshold. Wired
// as an IDS event hook.
func (n *Notifier) Alert(event models.SecurityEvent) {
	if !n.shouldAlert(event.Severity) {
		return
	}

	util.Error("Security alert",
		util.String("type", string(event.Type)),
		util.String("severity", string(event.Severity)),
		util.String("ip", event.IPAddress),
		util.String("details", event.Details),
		util.String("admin_email", n.cfg.AdminEmail),
	)
}

func (n *Notifier) shouldAlert(severity models.Severity) bool {
	if !n.cfg.SendAlerts {
		return false
	}
	threshold := severityRank[models.Severity(n.cfg.AlertThreshold)]
	if threshold == 0 {
		threshold = severityRank[models.SeverityHigh]
	}
	return severityRank[severity] >= threshold
}

// ContactSubmission forwards a sanitized contact form to the site owner.
// Delivery stubbed to the log sink.
func (n *Notifier) ContactSubmission(form models.ContactForm, ip string) {
	util.Info("Contact form notification",
		util.String("to", n.cfg.AdminEmail),
		util.String("from", fmt.Sprintf("%s <%s>", form.Name, form.Email)),
		util.String("ip", ip),
		util.Int("message_length", len(form.Message)),
	)
}

// DailySummary logs the daily security digest: IDS totals, CSP totals, and
// the current high-risk IPs.
func (n *Notifier) DailySummary(idsStats models.IDSStats, cspStats models.CSPStats, suspicious []models.SuspiciousIP) {
	highRisk := make([]string, 0, len(suspicious))
	for _, s := range suspicious {
		if len(highRisk) >= 5 {
			break
		}
		highRisk = append(highRisk, fmt.Sprintf("%s (score %d, %s)", s.IP, s.ThreatScore.Score, s.ThreatScore.RecommendedAction))
	}

	util.Info("Daily security summary",
		util.String("date", time.Now().Format("2006-01-02")),
		util.Int("events_24h", idsStats.EventsLast24h),
		util.Int("critical_events", idsStats.CriticalEvents),
		util.Int("high_severity_events", idsStats.HighSeverityEvents),
		util.Int("suspicious_ips", idsStats.SuspiciousIPs),
		util.Int("blocked_ips", idsStats.BlockedIPs),
		util.Int("csp_violations_24h", cspStats.ViolationsLast24h),
		util.Int("csp_violations_total", cspStats.TotalViolations),
		util.Any("high_risk_ips", highRisk),
	)
}
