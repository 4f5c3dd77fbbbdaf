// Package chain turns a recorded provider decision chain into the numbered steps shown
// in the logic-trace view of a usage log.
package chain

// Reason values recorded by the gateway for each chain item.
const (
	ReasonSessionReuse            = "session_reuse"
	ReasonInitialSelection        = "initial_selection"
	ReasonRequestSuccess          = "request_success"
	ReasonRetrySuccess            = "retry_success"
	ReasonRetryFailed             = "retry_failed"
	ReasonSystemError             = "system_error"
	ReasonClientErrorNonRetryable = "client_error_non_retryable"
	ReasonConcurrentLimitFailed   = "concurrent_limit_failed"
	ReasonHTTP2Fallback           = "http2_fallback"
	ReasonEndpointPoolExhausted   = "endpoint_pool_exhausted"
)

// Selection methods recorded on a chain item.
const (
	SelectionMethodSessionReuse   = "session_reuse"
	SelectionMethodWeightedRandom = "weighted_random"
	SelectionMethodGroupFiltered  = "group_filtered"
	SelectionMethodFailOver       = "fail_over"
)

// Circuit breaker states reported on an attempt.
const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half-open"
)

// ModelRedirect records a model rename applied before the upstream call.
type ModelRedirect struct {
	OriginalModel   string `json:"originalModel"`
	RedirectedModel string `json:"redirectedModel"`
	BillingModel    string `json:"billingModel,omitempty"`
}

// Candidate is a provider considered at the selected priority level.
type Candidate struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Weight         int     `json:"weight"`
	CostMultiplier float64 `json:"costMultiplier"`
	Probability    float64 `json:"probability,omitempty"`
}

// FilteredProvider is a provider excluded before selection.
type FilteredProvider struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// DecisionContext is the selection metadata attached to a chain item.
type DecisionContext struct {
	TotalProviders       int                `json:"totalProviders"`
	EnabledProviders     int                `json:"enabledProviders"`
	TargetType           string             `json:"targetType,omitempty"`
	RequestedModel       string             `json:"requestedModel,omitempty"`
	GroupFilterApplied   bool               `json:"groupFilterApplied,omitempty"`
	UserGroup            string             `json:"userGroup,omitempty"`
	AfterGroupFilter     *int               `json:"afterGroupFilter,omitempty"`
	AfterModelFilter     *int               `json:"afterModelFilter,omitempty"`
	AfterHealthCheck     int                `json:"afterHealthCheck"`
	SelectedPriority     *int               `json:"selectedPriority,omitempty"`
	PriorityLevels       []int              `json:"priorityLevels,omitempty"`
	CandidatesAtPriority []Candidate        `json:"candidatesAtPriority,omitempty"`
	FilteredProviders    []FilteredProvider `json:"filteredProviders,omitempty"`
	SessionID            string             `json:"sessionId,omitempty"`
	SessionAge           *int64             `json:"sessionAge,omitempty"`
}

// ErrorDetails carries the upstream or system error captured for a failed attempt.
type ErrorDetails struct {
	Provider struct {
		ID           int64  `json:"id"`
		Name         string `json:"name"`
		StatusCode   int    `json:"statusCode"`
		StatusText   string `json:"statusText"`
		UpstreamBody string `json:"upstreamBody,omitempty"`
	} `json:"provider"`
	System struct {
		ErrorType    string `json:"errorType,omitempty"`
		ErrorName    string `json:"errorName,omitempty"`
		ErrorMessage string `json:"errorMessage,omitempty"`
		ErrorCode    string `json:"errorCode,omitempty"`
	} `json:"system"`
	Request struct {
		URL    string `json:"url,omitempty"`
		Method string `json:"method,omitempty"`
		Model  string `json:"model,omitempty"`
	} `json:"request"`
}

// ProviderChainItem is one decision or attempt made while serving a request.
// Items are read-only snapshots; nothing in this package mutates them.
type ProviderChainItem struct {
	ID                      int64            `json:"id"`
	Name                    string           `json:"name"`
	Reason                  string           `json:"reason,omitempty"`
	SelectionMethod         string           `json:"selectionMethod,omitempty"`
	AttemptNumber           int              `json:"attemptNumber,omitempty"`
	StatusCode              int              `json:"statusCode,omitempty"`
	Timestamp               *int64           `json:"timestamp,omitempty"`
	DecisionContext         *DecisionContext `json:"decisionContext,omitempty"`
	CircuitState            string           `json:"circuitState,omitempty"`
	CircuitFailureCount     int              `json:"circuitFailureCount,omitempty"`
	CircuitFailureThreshold int              `json:"circuitFailureThreshold,omitempty"`
	ModelRedirect           *ModelRedirect   `json:"modelRedirect,omitempty"`
	ErrorMessage            string           `json:"errorMessage,omitempty"`
	ErrorDetails            *ErrorDetails    `json:"errorDetails,omitempty"`
	EndpointID              *int64           `json:"endpointId,omitempty"`
	EndpointURL             string           `json:"endpointUrl,omitempty"`
	Priority                *int             `json:"priority,omitempty"`
	Weight                  *int             `json:"weight,omitempty"`
	CostMultiplier          *float64         `json:"costMultiplier,omitempty"`
	GroupTag                string           `json:"groupTag,omitempty"`
}
