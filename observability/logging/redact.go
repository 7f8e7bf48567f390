package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces sensitive values in log output.
const RedactedValue = "[REDACTED]"

// plainKeys are emitted verbatim by MaskField.
var plainKeys = map[string]struct{}{
	"service":    {},
	"env":        {},
	"error":      {},
	"reason":     {},
	"route":      {},
	"status":     {},
	"address":    {},
	"collection": {},
	"buyer":      {},
	"owner":      {},
	"quantity":   {},
	"amount":     {},
	"paid":       {},
	"reference":  {},
	"type":       {},
	"backend":    {},
}

// sensitiveFragments mark keys whose values never reach a log line, whatever
// call site produced them.
var sensitiveFragments = []string{"secret", "passphrase", "password", "token", "authorization", "private"}

// IsPlain reports whether key is emitted without masking.
func IsPlain(key string) bool {
	_, ok := plainKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// IsSensitive reports whether key names a credential.
func IsSensitive(key string) bool {
	normalized := strings.ToLower(key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

// MaskField returns an attribute whose value is redacted unless key is a
// known plain field. Empty values are kept so missing configuration stays
// visible.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsPlain(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// redactAttr is installed on every handler and masks credential-like keys.
func redactAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup || !IsSensitive(attr.Key) {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && attr.Value.String() == "" {
		return attr
	}
	return slog.String(attr.Key, RedactedValue)
}
