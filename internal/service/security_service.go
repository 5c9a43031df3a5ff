package service

import (
	"portfolio-api/internal/classifier"
	"portfolio-api/internal/csp"
	"portfolio-api/internal/ids"
	"portfolio-api/internal/models"
	"portfolio-api/internal/repository/postgres"
	"portfolio-api/internal/util"
)

// Dashboard is the aggregate admin view over the live detectors.
type Dashboard struct {
	IDS             models.IDSStats        `json:"ids"`
	CSP             models.CSPStats        `json:"csp"`
	SuspiciousIPs   []models.SuspiciousIP  `json:"suspicious_ips"`
	RecentEvents    []models.SecurityEvent `json:"recent_events"`
	ArchivedEvents  []models.SecurityEvent `json:"archived_events,omitempty"`
	PatternFamilies map[string][]string    `json:"pattern_families"`
}

// SecurityService serves the admin security endpoints.
type SecurityService struct {
	tracker  *ids.Tracker
	reporter *csp.Reporter
	archive  *postgres.EventArchive
}

// NewSecurityService wires the dashboard service. archive may be nil when
// Postgres is not configured.
func NewSecurityService(tracker *ids.Tracker, reporter *csp.Reporter, archive *postgres.EventArchive) *SecurityService {
	return &SecurityService{tracker: tracker, reporter: reporter, archive: archive}
}

// Dashboard builds a snapshot for the admin security page.
func (s *SecurityService) Dashboard() Dashboard {
	d := Dashboard{
		IDS:             s.tracker.Stats(),
		CSP:             s.reporter.Stats(),
		SuspiciousIPs:   s.tracker.SuspiciousIPs(),
		RecentEvents:    s.tracker.RecentEvents(20),
		PatternFamilies: classifier.PatternFamilies(),
	}
	if s.archive != nil {
		archived, err := s.archive.RecentEvents(50)
		if err != nil {
			util.Error("Failed to read archived events", util.ErrorField(err))
		} else {
			d.ArchivedEvents = archived
		}
	}
	return d
}

// BlockIP manually blocks a client. Admin action, audited through the IDS
// event log.
func (s *SecurityService) BlockIP(ip string) {
	s.tracker.BlockIP(ip)
}

// UnblockIP clears a block and all counters behind it, so the next score
// starts from zero.
func (s *SecurityService) UnblockIP(ip string) {
	s.tracker.UnblockIP(ip)
}

// ThreatScore exposes the live score for one IP.
func (s *SecurityService) ThreatScore(ip string) models.ThreatScore {
	return s.tracker.CalculateThreatScore(ip)
}
