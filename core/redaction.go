package core

import "strings"

const RedactedValue = "[REDACTED]"

// RedactSensitiveMap returns a deep copy with secret-bearing values replaced.
// Every map that reaches a log line goes through here first.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	redacted, _ := redactValue(fields).(map[string]any)
	return redacted
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, nested := range typed {
			if sensitiveKey(key) {
				out[key] = RedactedValue
				continue
			}
			out[key] = redactValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, nested := range typed {
			out[i] = redactValue(nested)
		}
		return out
	default:
		return value
	}
}

// sensitiveTokens matches by substring so variants like "client_secret",
// "access_token", or "webhook_signature" are all caught. "code" covers the
// single-use authorization code, which must never reach a log line.
var sensitiveTokens = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"access_key",
	"refresh",
	"credential",
	"signature",
	"code",
}

func sensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" || traceabilityKey(key) {
		return false
	}
	for _, token := range sensitiveTokens {
		if strings.Contains(key, token) {
			return true
		}
	}
	return false
}

// traceabilityKey exempts identifiers operators need to correlate a webhook
// or exchange across log lines, even when a substring match would flag them.
func traceabilityKey(key string) bool {
	switch key {
	case "platform",
		"organization_id",
		"source_domain",
		"topic",
		"job_id",
		"upstream_status",
		"exchange_state",
		"trace_id",
		"request_id":
		return true
	default:
		return false
	}
}
