package chain

// StepStatus classifies a rendered step.
type StepStatus string

const (
	StatusSuccess      StepStatus = "success"
	StatusFailure      StepStatus = "failure"
	StatusWarning      StepStatus = "warning"
	StatusPending      StepStatus = "pending"
	StatusSkipped      StepStatus = "skipped"
	StatusSessionReuse StepStatus = "session_reuse"
)

// ClassifyStatus maps a chain item to the status of its attempt step.
// Unknown reasons, http2_fallback included, are pending.
func ClassifyStatus(item ProviderChainItem) StepStatus {
	if isSessionReuse(item) {
		return StatusSessionReuse
	}
	switch item.Reason {
	case ReasonRequestSuccess, ReasonRetrySuccess:
		return StatusSuccess
	case ReasonRetryFailed, ReasonSystemError, ReasonClientErrorNonRetryable, ReasonConcurrentLimitFailed:
		return StatusFailure
	default:
		return StatusPending
	}
}

// IsSessionReuseFlow reports whether the request was served by a provider pinned to
// its session. Only the first item decides.
func IsSessionReuseFlow(items []ProviderChainItem) bool {
	return len(items) > 0 && isSessionReuse(items[0])
}

func isSessionReuse(item ProviderChainItem) bool {
	return item.Reason == ReasonSessionReuse || item.SelectionMethod == SelectionMethodSessionReuse
}

func isRetry(item ProviderChainItem) bool {
	return item.AttemptNumber > 1
}

// RetryCount returns how many provider attempts followed the first one.
// Selection-only items (initial selection, session reuse) are not attempts.
func RetryCount(items []ProviderChainItem) int {
	attempts := 0
	for _, item := range items {
		switch item.Reason {
		case ReasonInitialSelection, ReasonSessionReuse:
			continue
		}
		attempts++
	}
	return max(attempts-1, 0)
}
