package chain

import (
	"strings"
)

// Translate resolves a label key, substituting {name} placeholders from vars.
type Translate func(key string, vars map[string]string) string

var defaultLabels = map[string]string{
	"step.sessionReuse.title":         "Session reuse",
	"step.sessionReuse.subtitle":      "Reused provider {name}",
	"step.sessionReuse.execute":       "Execute request",
	"step.initialSelection.title":     "Initial selection",
	"step.initialSelection.subtitle":  "{enabled} of {total} providers enabled",
	"step.healthCheck.title":          "Health check",
	"step.healthCheck.subtitle":       "{count} providers filtered",
	"step.prioritySelection.title":    "Priority selection",
	"step.prioritySelection.subtitle": "Priority {priority}, {count} candidates",
	"step.retry.title":                "Retry attempt #{attempt}",
	"step.attempt.title":              "Attempt provider {name}",
	"step.httpStatus":                 "HTTP {code}",

	"reason.session_reuse":              "Session reuse",
	"reason.initial_selection":          "Initial selection",
	"reason.request_success":            "Request succeeded",
	"reason.retry_success":              "Retry succeeded",
	"reason.retry_failed":               "Retry failed",
	"reason.system_error":               "System error",
	"reason.client_error_non_retryable": "Client error (not retried)",
	"reason.concurrent_limit_failed":    "Concurrent limit reached",
	"reason.http2_fallback":             "HTTP/2 fallback",
	"reason.endpoint_pool_exhausted":    "Endpoint pool exhausted",

	"timeline.total": "Total duration: {duration}ms",
}

// DefaultTranslate resolves keys against the built-in English labels.
// Unknown reason keys fall back to the raw reason; other unknown keys are returned as-is.
func DefaultTranslate(key string, vars map[string]string) string {
	label, ok := defaultLabels[key]
	if !ok {
		if reason, isReason := strings.CutPrefix(key, "reason."); isReason {
			return reason
		}
		label = key
	}
	return substitute(label, vars)
}

func substitute(label string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(label, "{") {
		return label
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(label)
}

func reasonLabel(tr Translate, reason string) string {
	if reason == "" {
		return ""
	}
	return tr("reason."+reason, nil)
}
