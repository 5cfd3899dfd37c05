// Package mask redacts credential values in text before it is surfaced in a
// finding. Only the value payload is rewritten; key names and surrounding
// punctuation are preserved.
package mask

import (
	"regexp"
	"strings"
)

const (
	// MinSecretLen is the shortest assignment value Mask treats as a credential.
	MinSecretLen = 8
	// keep is the number of leading runes left visible in a redacted value.
	keep = 4
	// Redaction replaces the hidden part of a value.
	Redaction = "****"
)

// assignment matches key/value pairs whose key names a credential, for
// example `DB_PASSWORD=...`, `"api_key": "..."` or `authToken = '...'`.
// Group 1 is the key with its separator and opening quote, group 2 the value.
var assignment = regexp.MustCompile(`(?i)([A-Za-z0-9_.-]*(?:key|secret|token|password|passwd|pwd|auth|credential|api)[A-Za-z0-9_.-]*["']?\s*[:=]\s*["']?)([A-Za-z0-9+/_=-]{8,})`)

// Mask redacts every credential assignment value of MinSecretLen or more
// characters to its first four characters followed by "****". Shorter values
// are returned unchanged. Mask is idempotent.
func Mask(text string) string {
	locs := assignment.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		vs, ve := loc[4], loc[5]
		b.WriteString(text[last:vs])
		b.WriteString(redact(text[vs:ve]))
		last = ve
	}
	b.WriteString(text[last:])
	return b.String()
}

// Span redacts text[start:end], a byte range already known to hold a
// credential. Spans of MinSecretLen runes or more keep their first four
// runes; shorter spans are replaced entirely. Out-of-range spans leave text
// unchanged.
func Span(text string, start, end int) string {
	if start < 0 || end > len(text) || start >= end {
		return text
	}
	return text[:start] + redact(text[start:end]) + text[end:]
}

// Spans redacts several non-overlapping byte ranges of text. Ranges are
// applied from last to first so earlier offsets stay valid.
func Spans(text string, spans [][2]int) string {
	for i := len(spans) - 1; i >= 0; i-- {
		text = Span(text, spans[i][0], spans[i][1])
	}
	return text
}

func redact(value string) string {
	runes := []rune(value)
	if len(runes) < MinSecretLen {
		return Redaction
	}
	return string(runes[:keep]) + Redaction
}
