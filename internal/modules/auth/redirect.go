package auth

import (
	"net/url"
	"strings"
)

var blockedSchemes = []string{
	"javascript:", "data:", "vbscript:", "http:", "https:", "ftp:", "file:", "mailto:", "tel:",
}

// SanitizeRedirectPath returns path when it is a same-origin relative path and
// fallback otherwise. Protocol-relative paths, embedded schemes, backslashes,
// NUL bytes and undecodable escapes are all rejected.
func SanitizeRedirectPath(path, fallback string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return fallback
	}
	if !strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "//") {
		return fallback
	}

	decoded, err := url.PathUnescape(trimmed)
	if err != nil {
		return fallback
	}
	if strings.HasPrefix(decoded, "//") {
		return fallback
	}

	lower := strings.ToLower(decoded)
	for _, scheme := range blockedSchemes {
		if strings.Contains(lower, scheme) {
			return fallback
		}
	}

	if strings.Contains(trimmed, `\`) || strings.Contains(trimmed, "\x00") || strings.Contains(trimmed, "%00") {
		return fallback
	}
	return trimmed
}
