package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/models"
)

func TestHTML(t *testing.T) {
	assert.Equal(t, "hello <b>world</b>",
		HTML(`hello <b>world</b><script>alert(1)</script>`))

	// Disallowed tags are removed, their inner text kept.
	assert.Equal(t, "content", HTML(`<div>content</div>`))

	// Inline event handlers go even on allowed tags.
	out := HTML(`<b onclick="steal()">bold</b>`)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "bold")

	assert.Equal(t, "<p>a <em>b</em></p>", HTML(`<p>a <em>b</em></p>`))
}

func TestText(t *testing.T) {
	assert.Equal(t, "plain words", Text("  plain words  "))
	assert.Equal(t, "inner", Text("<div><b>inner</b></div>"))
	assert.Equal(t, "", Text("<br>"))
}

func TestChatMessage(t *testing.T) {
	assert.Equal(t, "hi there", ChatMessage("  <i>hi there</i> "))

	long := strings.Repeat("x", 2500)
	assert.Len(t, ChatMessage(long), 2000)
}

func TestEmail(t *testing.T) {
	got, err := Email("  User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got)

	for _, bad := range []string{"not-an-email", "a@b", "two@@example.com", "spaces in@example.com", ""} {
		_, err := Email(bad)
		assert.Error(t, err, "should reject %q", bad)
	}
}

func TestContactForm(t *testing.T) {
	form, err := ContactForm(models.ContactForm{
		Name:    " <b>Jane</b> Doe ",
		Email:   "Jane@Example.com",
		Message: "<p>Hello!</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", form.Name)
	assert.Equal(t, "jane@example.com", form.Email)
	assert.Equal(t, "Hello!", form.Message)

	_, err = ContactForm(models.ContactForm{Name: "Jane", Email: "nope", Message: "hi"})
	assert.Error(t, err)
}

func TestContactFormCapsLengths(t *testing.T) {
	form, err := ContactForm(models.ContactForm{
		Name:    strings.Repeat("n", 150),
		Email:   "a@b.co",
		Message: strings.Repeat("m", 6000),
	})
	require.NoError(t, err)
	assert.Len(t, form.Name, 100)
	assert.Len(t, form.Message, 5000)
}

func TestCheckSuspiciousInput(t *testing.T) {
	suspicious := []string{
		"1 OR 1=1",
		"x' UNION SELECT password FROM users",
		"; DROP TABLE users",
		"INSERT INTO accounts VALUES",
		"DELETE FROM logs",
		"<script>alert(1)</script>",
		"javascript:void(0)",
		`<img onerror=alert(1)>`,
		strings.Repeat("a", 10001),
		"null\x00byte",
	}
	for _, input := range suspicious {
		flagged, reason := CheckSuspiciousInput(input)
		assert.True(t, flagged, "should flag %.40q", input)
		assert.NotEmpty(t, reason)
	}

	clean := []string{
		"Hello, I'd like to talk about a project.",
		"Drop me a line when you can",
		"I saw your table of skills and liked it",
	}
	for _, input := range clean {
		flagged, reason := CheckSuspiciousInput(input)
		assert.False(t, flagged, "should pass %q (got %q)", input, reason)
		assert.Empty(t, reason)
	}
}

func TestCheckSuspiciousInputReasons(t *testing.T) {
	_, reason := CheckSuspiciousInput("1 OR 1=1")
	assert.Equal(t, "Potential injection attack detected", reason)

	_, reason = CheckSuspiciousInput(strings.Repeat("a", 10001))
	assert.Equal(t, "Input exceeds maximum length", reason)

	_, reason = CheckSuspiciousInput("x\x00y")
	assert.Equal(t, "Null byte detected", reason)
}

func TestEscapeSpecialChars(t *testing.T) {
	assert.Equal(t, `it''s`, EscapeSpecialChars(`it's`))
	assert.Equal(t, `a\\b`, EscapeSpecialChars(`a\b`))
	assert.Equal(t, `say \"hi\"`, EscapeSpecialChars(`say "hi"`))
}
