package usecase

import (
	"regexp"
	"strings"
)

var (
	brTagRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	closePRe     = regexp.MustCompile(`(?i)</p>`)
	closeDivRe   = regexp.MustCompile(`(?i)</div>`)
	anyTagRe     = regexp.MustCompile(`<[^>]*>`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// SanitizeEmailBody strips markup from an email body into readable plain
// text. It is a readability transform, not a security sanitizer: the output
// is only ever rendered as plain text. Plain text without angle brackets
// passes through unchanged.
func SanitizeEmailBody(s string) string {
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return s
	}

	out := brTagRe.ReplaceAllString(s, "\n")
	out = closePRe.ReplaceAllString(out, "\n\n")
	out = closeDivRe.ReplaceAllString(out, "\n")
	out = anyTagRe.ReplaceAllString(out, "")

	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	out = replacer.Replace(out)

	out = manyNewlines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
