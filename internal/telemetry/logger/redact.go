package logger

import (
	"log/slog"
	"strings"
)

// jwtPrefix is how every base64url-encoded JOSE header starts ({"...).
const jwtPrefix = "eyJ"

const bearerPrefix = "Bearer "

// Key fragments that mark an attribute as sensitive.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"authorization",
	"bearer",
}

const redactedValue = "***REDACTED***"

// redactSensitive masks token-looking values and blanks values of sensitive keys.
// Value detection wins so a JWT logged under a harmless key keeps a hint.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if IsSensitiveValue(v) {
			return slog.String(a.Key, RedactString(v))
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskValue keeps prefix plus the first and last 3 characters of the rest.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks a JWT or a bearer header value; anything else is returned as is.
func RedactString(value string) string {
	switch {
	case strings.HasPrefix(value, bearerPrefix):
		return bearerPrefix + RedactString(value[len(bearerPrefix):])
	case strings.HasPrefix(value, jwtPrefix):
		return maskValue(value, jwtPrefix)
	default:
		return value
	}
}

// MaskToken masks any token for display. JWTs keep their prefix, opaque
// values keep only their first and last characters.
func MaskToken(value string) string {
	if value == "" || IsSensitiveValue(value) {
		return RedactString(value)
	}
	return maskValue(value, "")
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value looks like a JWT or a bearer header.
func IsSensitiveValue(value string) bool {
	return strings.HasPrefix(value, jwtPrefix) || strings.HasPrefix(value, bearerPrefix)
}
