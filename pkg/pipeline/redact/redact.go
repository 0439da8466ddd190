package redact

import (
	"regexp"
	"strings"
)

var (
	// Authorization header values, whatever the token shape.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Token assignments that show up when env or config values get echoed
	// into error strings, e.g. MAILJET_TOKEN=....
	tokenKVRe = regexp.MustCompile(`(?i)\b(mailjet[_-]?token|api[_-]?token|api[_-]?key)\b\s*[:=]\s*[^\s"']+`)
)

// Secrets scrubs token-bearing substrings from a string before it reaches
// the failure file, a log line, or stderr.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = tokenKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}
