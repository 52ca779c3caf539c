package presenter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
)

const maxReasonRunes = 240

var debugReasonPatterns = []*regexp.Regexp{
	// stack frames from Go, JVM, JS and Python runtimes
	regexp.MustCompile(`(?m)^\s*at\s+[\w$<>/]+(?:\.[\w$<>/]+)+\s*\(`),
	regexp.MustCompile(`\.(go|java|js|ts|py|rb|cs):\d+`),
	regexp.MustCompile(`\bgoroutine \d+\b|\bpanic:|Traceback \(most recent call last\)`),
	// exception class names
	regexp.MustCompile(`\b(?:[A-Za-z_][\w]*\.)*[A-Z]\w*(?:Exception|Error)\b`),
	regexp.MustCompile(`\b[\w.]+::[\w]+`),
	// raw key/value dumps
	regexp.MustCompile(`\b\w+=[^\s,;]+(?:[\s,;]+\w+=[^\s,;]+)+`),
	regexp.MustCompile(`"\w+"\s*:\s*`),
	regexp.MustCompile(`^\s*[\[{]`),
}

// ReasonSummary returns the reason to show on the denial screen, or "" when
// the upstream reason is missing, generic, or looks like debug output.
func ReasonSummary(reason string) string {
	value := strings.TrimSpace(reason)
	if value == "" || value == entities.DefaultDenialReason {
		return ""
	}
	for _, pattern := range debugReasonPatterns {
		if pattern.MatchString(value) {
			return ""
		}
	}
	if utf8.RuneCountInString(value) > maxReasonRunes {
		runes := []rune(value)
		value = strings.TrimSpace(string(runes[:maxReasonRunes])) + "…"
	}
	return value
}
