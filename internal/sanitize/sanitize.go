package sanitize

import (
	"fmt"
	"regexp"
	"strings"

	"portfolio-api/internal/models"
)

const (
	maxChatMessageLength = 2000
	maxNameLength        = 100
	maxContactMessage    = 5000
	maxInputLength       = 10000
)

var (
	scriptTagRe    = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+\s*=\s*["'][^"']*["']`)
	htmlTagRe      = regexp.MustCompile(`<[^>]*>`)
	anyTagRe       = regexp.MustCompile(`(?i)</?([a-z][a-z0-9]*)\b[^>]*>`)
	emailRe        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

var allowedTags = map[string]bool{
	"b": true, "i": true, "em": true, "strong": true, "a": true, "p": true, "br": true,
}

// HTML strips script tags, event handlers, and any tag not in the small
// allowlist, keeping the rest of the markup intact.
func HTML(dirty string) string {
	cleaned := scriptTagRe.ReplaceAllString(dirty, "")
	cleaned = eventHandlerRe.ReplaceAllString(cleaned, "")
	return anyTagRe.ReplaceAllStringFunc(cleaned, func(match string) string {
		sub := anyTagRe.FindStringSubmatch(match)
		if len(sub) == 2 && allowedTags[strings.ToLower(sub[1])] {
			return match
		}
		return ""
	})
}

// Text removes all HTML tags and trims surrounding whitespace.
func Text(dirty string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(dirty, ""))
}

// ChatMessage strips markup from a chat message and caps its length.
func ChatMessage(message string) string {
	trimmed := Text(message)
	if len(trimmed) > maxChatMessageLength {
		return trimmed[:maxChatMessageLength]
	}
	return trimmed
}

// Email normalizes and validates an email address.
func Email(email string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(Text(email)))
	if !emailRe.MatchString(cleaned) {
		return "", fmt.Errorf("invalid email format")
	}
	return cleaned, nil
}

// ContactForm sanitizes a contact submission field by field.
func ContactForm(form models.ContactForm) (models.ContactForm, error) {
	email, err := Email(form.Email)
	if err != nil {
		return models.ContactForm{}, err
	}

	name := Text(form.Name)
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	message := Text(form.Message)
	if len(message) > maxContactMessage {
		message = message[:maxContactMessage]
	}

	return models.ContactForm{Name: name, Email: email, Message: message}, nil
}

var suspiciousInputRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\bOR\b|\bAND\b)\s+[\d\w]+\s*=\s*[\d\w]+`),
	regexp.MustCompile(`(?i)UNION\s+SELECT`),
	regexp.MustCompile(`(?i)DROP\s+TABLE`),
	regexp.MustCompile(`(?i)INSERT\s+INTO`),
	regexp.MustCompile(`(?i)DELETE\s+FROM`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
}

// CheckSuspiciousInput flags injection-shaped input. It never errors: any
// input is either suspicious with a reason, or clean.
func CheckSuspiciousInput(input string) (bool, string) {
	for _, re := range suspiciousInputRes {
		if re.MatchString(input) {
			return true, "Potential injection attack detected"
		}
	}
	if len(input) > maxInputLength {
		return true, "Input exceeds maximum length"
	}
	if strings.ContainsRune(input, 0) {
		return true, "Null byte detected"
	}
	return false, ""
}

// EscapeSpecialChars escapes quote and backslash characters for query-like
// contexts.
func EscapeSpecialChars(s string) string {
	s = strings.ReplaceAll(s, `'`, `''`)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
