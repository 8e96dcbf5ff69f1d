// Package security provides secret masking helpers for jiaz.
package security

import (
	"regexp"
	"strings"
)

// MaskAPIKey masks an API key, showing only the last 4 characters.
// This should be used when logging or displaying API keys and tokens.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

var sanitizePatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	// Google API keys
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`), "AIza****"},
	// query string keys (?key=...)
	{regexp.MustCompile(`([?&]key=)[^&\s"']+`), "${1}****"},
	// Bearer tokens
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._~+/=-]+`), "Bearer ****"},
	// Generic key/token assignments
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|user[_-]?token|gemini[_-]?api[_-]?key|token)\s*[:=]\s*["']?[a-zA-Z0-9._~+/=-]+["']?`), "$1=****"},
	// Password patterns
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?[^\s"']+["']?`), "$1=****"},
}

// SanitizeForLogging sanitizes a string for safe logging by masking potential secrets.
func SanitizeForLogging(s string) string {
	result := s
	for _, p := range sanitizePatterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}

// MaskFields returns a copy of values where every key listed in sensitive is masked.
func MaskFields(values map[string]string, sensitive map[string]bool) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if sensitive[k] && v != "" {
			out[k] = MaskAPIKey(v)
			continue
		}
		out[k] = v
	}
	return out
}
