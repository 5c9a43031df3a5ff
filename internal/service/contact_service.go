package service

import (
	"errors"

	"portfolio-api/internal/ids"
	"portfolio-api/internal/models"
	"portfolio-api/internal/notify"
	"portfolio-api/internal/sanitize"
	"portfolio-api/internal/util"
)

var (
	ErrMissingFields   = errors.New("all fields are required")
	ErrSuspiciousInput = errors.New("invalid input detected")
)

// ContactService screens and sanitizes contact submissions.
type ContactService struct {
	tracker  *ids.Tracker
	notifier *notify.Notifier
}

func NewContactService(tracker *ids.Tracker, notifier *notify.Notifier) *ContactService {
	return &ContactService{tracker: tracker, notifier: notifier}
}

// Submit validates one contact form. A filled honeypot field returns
// (true, nil) so bots get the same success response a human would, while
// the submission itself is silently dropped.
func (s *ContactService) Submit(ip, userAgent string, form models.ContactForm) (honeypot bool, err error) {
	if form.Website != "" {
		s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium,
			ip, userAgent, "Honeypot triggered")
		return true, nil
	}

	if form.Name == "" || form.Email == "" || form.Message == "" {
		return false, ErrMissingFields
	}

	if suspicious, reason := sanitize.CheckSuspiciousInput(form.Name); suspicious {
		s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium, ip, userAgent, reason)
		return false, ErrSuspiciousInput
	}
	if suspicious, reason := sanitize.CheckSuspiciousInput(form.Message); suspicious {
		s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium, ip, userAgent, reason)
		return false, ErrSuspiciousInput
	}

	sanitized, err := sanitize.ContactForm(form)
	if err != nil {
		s.tracker.LogEvent(models.EventSuspiciousPattern, models.SeverityMedium, ip, userAgent, err.Error())
		return false, err
	}

	// Delivery is the notifier's problem; the request path only logs.
	util.Info("Contact submission",
		util.String("name", sanitized.Name),
		util.String("email", sanitized.Email),
		util.String("ip", ip))
	s.notifier.ContactSubmission(sanitized, ip)

	return false, nil
}
