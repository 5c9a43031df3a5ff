// Package classifier implements the stateless message checks applied to chat
// input and output: link detection, prompt-injection phrase matching,
// encoding and steganography detection, and response sanity validation.
//
// Everything here is a total function over arbitrary text. Nothing returns an
// error; a rejection is a decision, not a failure.
package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"portfolio-api/internal/sanitize"
)

// Threat labels recorded for the log sink. They are never shown to users.
type Threat string

const (
	ThreatLink          Threat = "link"
	ThreatInjection     Threat = "injection"
	ThreatEncodedAttack Threat = "encoded-attack"
)

// Result is the outcome of ValidateMessageSecurity. Reason is the canned
// refusal text to show the user; it deliberately never names the detector
// that fired.
type Result struct {
	Valid  bool
	Threat Threat
	Reason string
}

const (
	refusalGeneric = "I'm here to discuss Rodwin's portfolio and projects only. I can't help with that request."
	refusalLinks   = "I'm here to discuss Rodwin's portfolio and projects only. I can't interact with links or URLs."
)

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://`),
	regexp.MustCompile(`(?i)www\.\w+\.\w+`),
	regexp.MustCompile(`(?i)\w+\.(com|net|org|edu|gov|io|co|dev|app|ph|us|uk|ca|au|de|fr|jp|cn|in|br|ru|za|mx|es|it|nl|se|no|dk|fi|be|at|ch|pl|cz|gr|pt|hu|ro|bg|hr|sk|si|ee|lv|lt|cy|mt|lu)`),
	regexp.MustCompile(`(?i)bit\.ly|tinyurl|t\.co|goo\.gl|ow\.ly|is\.gd|buff\.ly|adf\.ly`),
	regexp.MustCompile(`\[.*?\]\(.*?\)`),
	regexp.MustCompile(`(?i)<a\s+href`),
	regexp.MustCompile(`(?i)\bhref\s*=`),
	regexp.MustCompile(`(?i)\bsrc\s*=`),
	regexp.MustCompile(`(\w+\.){2,}`),
	regexp.MustCompile(`\w+://`),
	regexp.MustCompile(`(?i)\.com/|\.net/|\.org/|\.io/|\.co/`),
}

// ContainsLinks reports whether text holds anything that could plausibly be
// a hyperlink. It errs toward false positives: the downstream model must
// never see an attacker-supplied URL.
func ContainsLinks(text string) bool {
	for _, re := range linkPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsPromptInjection tests text against the phrase denylist. Entries written
// in caps (pasted SQL keywords) are matched case-sensitively; everything
// else matches against the lower-cased text.
func IsPromptInjection(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range allInjectionPatterns {
		if hasUpper(pattern) {
			if strings.Contains(text, pattern) {
				return true
			}
		} else if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

var (
	urlEncodingRe  = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	htmlEntityRe   = regexp.MustCompile(`(?i)&(#\d+|#x[0-9A-Fa-f]+|[a-z]+);`)
	unicodeEscRe   = regexp.MustCompile(`\\u[0-9A-Fa-f]{4}`)
	zeroWidthRe    = regexp.MustCompile("[\u200B-\u200D\uFEFF]")
	cyrillicRe     = regexp.MustCompile("[а-яА-Я]")
	base64RunRe    = regexp.MustCompile(`(?:^|[^A-Za-z0-9+/])(?:[A-Za-z0-9+/]{4}){3,}(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?(?:[^A-Za-z0-9+/]|$)`)
	hexRunRe       = regexp.MustCompile(`(?:0x[0-9A-Fa-f]{2}[\s,]*){4,}`)
	longSpaceRe    = regexp.MustCompile(`\s{10,}`)
	bidiOverrideRe = regexp.MustCompile("[\u202A-\u202E]")
)

// ContainsEncodingAttack detects encoding tricks used to smuggle a payload
// past the phrase tables.
func ContainsEncodingAttack(text string) bool {
	switch {
	case urlEncodingRe.MatchString(text):
		return true
	case htmlEntityRe.MatchString(text):
		return true
	case unicodeEscRe.MatchString(text):
		return true
	case zeroWidthRe.MatchString(text):
		return true
	case cyrillicRe.MatchString(text): // Cyrillic homographs of Latin letters
		return true
	case base64RunRe.MatchString(text):
		return true
	case hexRunRe.MatchString(text):
		return true
	}
	return false
}

// ContainsMultiLanguageInjection catches the "ignore instructions" family in
// translation.
func ContainsMultiLanguageInjection(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range multiLanguagePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

var (
	bracketedRe  = regexp.MustCompile(`\[.*?\]`)
	parentheticRe = regexp.MustCompile(`\(.*?\)`)
	bracedRe     = regexp.MustCompile(`\{.*?\}`)
	politenessRe = regexp.MustCompile(`(?i)please|kindly|just|simply|only`)
)

// ContainsNestedInjection strips bracketed content and politeness filler and
// re-tests the core injection verbs, catching attacks hidden inside noise.
func ContainsNestedInjection(text string) bool {
	stripped := bracketedRe.ReplaceAllString(text, "")
	stripped = parentheticRe.ReplaceAllString(stripped, "")
	stripped = bracedRe.ReplaceAllString(stripped, "")
	stripped = politenessRe.ReplaceAllString(stripped, "")

	lower := strings.ToLower(stripped)
	for _, verb := range nestedInjectionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

// IsTokenLimitExploitation flags messages shaped to overflow or stuff the
// model context: excessive length, word floods, or heavy repetition.
func IsTokenLimitExploitation(text string) bool {
	if len(text) > 5000 {
		return true
	}

	words := strings.Fields(text)
	if len(words) > 1000 {
		return true
	}

	// A single character repeated 50+ times consecutively.
	run := 0
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev {
			run++
			if run >= 50 {
				return true
			}
		} else {
			run = 0
		}
		prev = r
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
		if counts[w] > 20 {
			return true
		}
	}
	return false
}

// ContainsSteganography detects invisible-character tricks: zero-width
// characters, long whitespace runs, and bidirectional override characters.
func ContainsSteganography(text string) bool {
	zeroWidth := []string{"\u200B", "\u200C", "\u200D", "\uFEFF", "\u180E"}
	for _, ch := range zeroWidth {
		if strings.Contains(text, ch) {
			return true
		}
	}
	if longSpaceRe.MatchString(text) {
		return true
	}
	return bidiOverrideRe.MatchString(text)
}

// ValidateMessageSecurity runs the full input gauntlet in a fixed order,
// short-circuiting on the first hit. The message is checked raw first and a
// second time after sanitization: stripping markup can unmask text that only
// becomes a match once the tags are gone.
func ValidateMessageSecurity(text string) Result {
	if ContainsEncodingAttack(text) {
		return Result{Valid: false, Threat: ThreatInjection, Reason: refusalGeneric}
	}
	if ContainsMultiLanguageInjection(text) {
		return Result{Valid: false, Threat: ThreatInjection, Reason: refusalGeneric}
	}
	if ContainsNestedInjection(text) {
		return Result{Valid: false, Threat: ThreatInjection, Reason: refusalGeneric}
	}
	if IsTokenLimitExploitation(text) {
		return Result{Valid: false, Threat: ThreatInjection, Reason: refusalGeneric}
	}
	if ContainsSteganography(text) {
		return Result{Valid: false, Threat: ThreatInjection, Reason: refusalGeneric}
	}

	if ContainsLinks(text) {
		return Result{Valid: false, Threat: ThreatLink, Reason: refusalLinks}
	}
	if IsPromptInjection(text) {
		return Result{Valid: false, Threat: ThreatInjection, Reason: refusalGeneric}
	}

	sanitized := sanitize.ChatMessage(text)

	if ContainsLinks(sanitized) {
		return Result{Valid: false, Threat: ThreatEncodedAttack, Reason: refusalLinks}
	}
	if IsPromptInjection(sanitized) {
		return Result{Valid: false, Threat: ThreatEncodedAttack, Reason: refusalGeneric}
	}

	return Result{Valid: true}
}

// ResponseResult is the outcome of ValidateAIResponse.
type ResponseResult struct {
	Valid  bool
	Reason string
}

// ValidateAIResponse is the post-generation sanity gate on the model's own
// output: it rejects identity-break phrasing outright, and long responses
// that carry neither first-person phrasing nor any portfolio keyword.
func ValidateAIResponse(response string) ResponseResult {
	lower := strings.ToLower(response)

	for _, flag := range responseRedFlags {
		if strings.Contains(lower, flag) {
			return ResponseResult{Valid: false, Reason: "Response contains suspicious content"}
		}
	}

	hasFirstPerson := false
	for _, ind := range firstPersonIndicators {
		if strings.Contains(lower, ind) {
			hasFirstPerson = true
			break
		}
	}
	hasPortfolioContext := false
	for _, kw := range portfolioKeywords {
		if strings.Contains(lower, kw) {
			hasPortfolioContext = true
			break
		}
	}

	if len(response) > 400 && !hasPortfolioContext && !hasFirstPerson {
		return ResponseResult{Valid: false, Reason: "Response seems off-topic"}
	}
	return ResponseResult{Valid: true}
}

// RefusalMessage is the canned assistant reply substituted for a rejected
// user message.
const RefusalMessage = "Sorry, I can't do that."

// FallbackResponse replaces a model response that failed validation.
const FallbackResponse = "I'm here to discuss Rodwin's portfolio and projects only. What would you like to know about his work?"

// PatternFamilies exposes the denylist grouped by family, for the dashboard
// and for table-driven tests.
func PatternFamilies() map[string][]string {
	out := make(map[string][]string, len(patternFamilies))
	for name, family := range patternFamilies {
		out[name] = append([]string(nil), family...)
	}
	return out
}
