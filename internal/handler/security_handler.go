package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"portfolio-api/internal/csp"
	"portfolio-api/internal/ids"
	"portfolio-api/internal/models"
	"portfolio-api/internal/service"
)

// SecurityHandler serves the CSP report sink and the admin security API.
type SecurityHandler struct {
	securityService *service.SecurityService
	tracker         *ids.Tracker
	reporter        *csp.Reporter
}

func NewSecurityHandler(securityService *service.SecurityService, tracker *ids.Tracker, reporter *csp.Reporter) *SecurityHandler {
	return &SecurityHandler{
		securityService: securityService,
		tracker:         tracker,
		reporter:        reporter,
	}
}

// CSPReport handles POST /api/v1/security/csp-report. Browsers send reports
// either bare or wrapped in a "csp-report" envelope depending on the
// Content-Type they chose; both are accepted.
func (h *SecurityHandler) CSPReport(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, err, "Invalid CSP report")
		return
	}

	report := body
	if strings.Contains(r.Header.Get("Content-Type"), "application/csp-report") {
		if wrapped, ok := body["csp-report"].(map[string]interface{}); ok {
			report = wrapped
		}
	}

	ip := ClientIP(r)
	userAgent := r.UserAgent()
	if userAgent == "" {
		userAgent = "unknown"
	}

	h.reporter.LogViolation(report, userAgent, ip)

	if check := h.reporter.DetectXSSAttempt(ip); check.IsAttempt {
		severity := models.SeverityMedium
		if check.Severity == models.SeverityHigh {
			severity = models.SeverityHigh
		}
		h.tracker.LogEvent(models.EventSuspiciousPattern, severity, ip, userAgent,
			fmt.Sprintf("Potential XSS attempt detected: %s", strings.Join(check.Details, ", ")),
			ids.WithMetadata(map[string]interface{}{
				"csp_violation": true,
				"xss_details":   check.Details,
			}))

		if check.Severity == models.SeverityHigh {
			h.tracker.TrackFailedLogin(ip, "", userAgent)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Dashboard handles GET /api/v1/security/dashboard. Admin only; the
// middleware enforces that.
func (h *SecurityHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, successResponse(h.securityService.Dashboard(), ""))
}

// ThreatScore handles GET /api/v1/security/threat-score?ip=...
func (h *SecurityHandler) ThreatScore(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		respondWithError(w, http.StatusBadRequest, errors.New("ip is required"), "Query parameter ip is required")
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(h.securityService.ThreatScore(ip), ""))
}

// BlockIP handles POST /api/v1/security/block.
func (h *SecurityHandler) BlockIP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IP == "" {
		respondWithError(w, http.StatusBadRequest, errors.New("ip is required"), "Request body must name an ip")
		return
	}

	h.securityService.BlockIP(req.IP)
	respondWithJSON(w, http.StatusOK, successResponse(nil, "IP blocked"))
}

// UnblockIP handles POST /api/v1/security/unblock.
func (h *SecurityHandler) UnblockIP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IP == "" {
		respondWithError(w, http.StatusBadRequest, errors.New("ip is required"), "Request body must name an ip")
		return
	}

	h.securityService.UnblockIP(req.IP)
	respondWithJSON(w, http.StatusOK, successResponse(nil, "IP unblocked"))
}
