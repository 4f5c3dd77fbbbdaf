package providerform

import (
	"maps"
	"slices"

	"github.com/pysugar/nexus-console/internal/db/models"
)

// Action is one state transition. Each settable field has its own variant.
type Action interface {
	isAction()
}

// Basic info
type (
	SetName         struct{ Value string }
	SetURL          struct{ Value string }
	SetKey          struct{ Value string }
	SetWebsiteURL   struct{ Value string }
	SetProviderType struct{ Value string }
	SetEnabled      struct{ Value bool }
)

// Routing
type (
	SetWeight           struct{ Value int }
	SetPriority         struct{ Value int }
	SetCostMultiplier   struct{ Value float64 }
	SetGroupTag         struct{ Value string }
	SetModelRedirects   struct{ Value map[string]string }
	SetAllowedModels    struct{ Value []string }
	SetPreserveClientIP struct{ Value bool }
	SetMaxRetryAttempts struct{ Value *int }
)

// Rate limits
type (
	SetLimit5hUSD              struct{ Value *float64 }
	SetLimitDailyUSD           struct{ Value *float64 }
	SetDailyResetTime          struct{ Value string }
	SetLimitWeeklyUSD          struct{ Value *float64 }
	SetLimitMonthlyUSD         struct{ Value *float64 }
	SetLimitTotalUSD           struct{ Value *float64 }
	SetLimitConcurrentSessions struct{ Value *int }
)

// Circuit breaker
type (
	SetFailureThreshold         struct{ Value int }
	SetOpenDurationMs           struct{ Value int64 }
	SetHalfOpenSuccessThreshold struct{ Value int }
)

// Network
type (
	SetProxyURL                     struct{ Value string }
	SetProxyFallbackToDirect        struct{ Value bool }
	SetFirstByteTimeoutStreamingMs  struct{ Value int64 }
	SetStreamingIdleTimeoutMs       struct{ Value int64 }
	SetRequestTimeoutNonStreamingMs struct{ Value int64 }
)

// MCP passthrough
type (
	SetMCPPassthroughType struct{ Value string }
	SetMCPPassthroughURL  struct{ Value string }
)

// UI
type (
	SetActiveTab         struct{ Value Tab }
	SetShowConfirmDialog struct{ Value bool }
	SetPending           struct{ Value bool }
)

// ResetForm returns to DefaultState.
type ResetForm struct{}

// LoadProvider replaces the whole state with an edit form for Provider.
type LoadProvider struct{ Provider models.Provider }

func (SetName) isAction()                         {}
func (SetURL) isAction()                          {}
func (SetKey) isAction()                          {}
func (SetWebsiteURL) isAction()                   {}
func (SetProviderType) isAction()                 {}
func (SetEnabled) isAction()                      {}
func (SetWeight) isAction()                       {}
func (SetPriority) isAction()                     {}
func (SetCostMultiplier) isAction()               {}
func (SetGroupTag) isAction()                     {}
func (SetModelRedirects) isAction()               {}
func (SetAllowedModels) isAction()                {}
func (SetPreserveClientIP) isAction()             {}
func (SetMaxRetryAttempts) isAction()             {}
func (SetLimit5hUSD) isAction()                   {}
func (SetLimitDailyUSD) isAction()                {}
func (SetDailyResetTime) isAction()               {}
func (SetLimitWeeklyUSD) isAction()               {}
func (SetLimitMonthlyUSD) isAction()              {}
func (SetLimitTotalUSD) isAction()                {}
func (SetLimitConcurrentSessions) isAction()      {}
func (SetFailureThreshold) isAction()             {}
func (SetOpenDurationMs) isAction()               {}
func (SetHalfOpenSuccessThreshold) isAction()     {}
func (SetProxyURL) isAction()                     {}
func (SetProxyFallbackToDirect) isAction()        {}
func (SetFirstByteTimeoutStreamingMs) isAction()  {}
func (SetStreamingIdleTimeoutMs) isAction()       {}
func (SetRequestTimeoutNonStreamingMs) isAction() {}
func (SetMCPPassthroughType) isAction()           {}
func (SetMCPPassthroughURL) isAction()            {}
func (SetActiveTab) isAction()                    {}
func (SetShowConfirmDialog) isAction()            {}
func (SetPending) isAction()                      {}
func (ResetForm) isAction()                       {}
func (LoadProvider) isAction()                    {}

// Reduce applies a to s and returns the new state. s is not modified; slices and
// maps carried by actions are copied. Unknown actions return s unchanged.
func Reduce(s FormState, a Action) FormState {
	switch a := a.(type) {
	case SetName:
		s.Basic.Name = a.Value
	case SetURL:
		s.Basic.URL = a.Value
	case SetKey:
		s.Basic.Key = a.Value
	case SetWebsiteURL:
		s.Basic.WebsiteURL = a.Value
	case SetProviderType:
		s.Basic.ProviderType = a.Value
	case SetEnabled:
		s.Basic.IsEnabled = a.Value

	case SetWeight:
		s.Routing.Weight = a.Value
	case SetPriority:
		s.Routing.Priority = a.Value
	case SetCostMultiplier:
		s.Routing.CostMultiplier = a.Value
	case SetGroupTag:
		s.Routing.GroupTag = a.Value
	case SetModelRedirects:
		s.Routing.ModelRedirects = maps.Clone(a.Value)
	case SetAllowedModels:
		s.Routing.AllowedModels = slices.Clone(a.Value)
	case SetPreserveClientIP:
		s.Routing.PreserveClientIP = a.Value
	case SetMaxRetryAttempts:
		s.Routing.MaxRetryAttempts = clonePtr(a.Value)

	case SetLimit5hUSD:
		s.RateLimit.Limit5hUSD = clonePtr(a.Value)
	case SetLimitDailyUSD:
		s.RateLimit.LimitDailyUSD = clonePtr(a.Value)
	case SetDailyResetTime:
		s.RateLimit.DailyResetTime = a.Value
	case SetLimitWeeklyUSD:
		s.RateLimit.LimitWeeklyUSD = clonePtr(a.Value)
	case SetLimitMonthlyUSD:
		s.RateLimit.LimitMonthlyUSD = clonePtr(a.Value)
	case SetLimitTotalUSD:
		s.RateLimit.LimitTotalUSD = clonePtr(a.Value)
	case SetLimitConcurrentSessions:
		s.RateLimit.LimitConcurrentSessions = clonePtr(a.Value)

	case SetFailureThreshold:
		s.CircuitBreaker.FailureThreshold = a.Value
	case SetOpenDurationMs:
		s.CircuitBreaker.OpenDurationMs = a.Value
	case SetHalfOpenSuccessThreshold:
		s.CircuitBreaker.HalfOpenSuccessThreshold = a.Value

	case SetProxyURL:
		s.Network.ProxyURL = a.Value
	case SetProxyFallbackToDirect:
		s.Network.ProxyFallbackToDirect = a.Value
	case SetFirstByteTimeoutStreamingMs:
		s.Network.FirstByteTimeoutStreamingMs = a.Value
	case SetStreamingIdleTimeoutMs:
		s.Network.StreamingIdleTimeoutMs = a.Value
	case SetRequestTimeoutNonStreamingMs:
		s.Network.RequestTimeoutNonStreamingMs = a.Value

	case SetMCPPassthroughType:
		s.MCP.PassthroughType = a.Value
		if a.Value != "custom" {
			s.MCP.PassthroughURL = ""
		}
	case SetMCPPassthroughURL:
		s.MCP.PassthroughURL = a.Value

	case SetActiveTab:
		s.UI.ActiveTab = a.Value
	case SetShowConfirmDialog:
		s.UI.ShowConfirmDialog = a.Value
	case SetPending:
		s.UI.IsPending = a.Value

	case ResetForm:
		return DefaultState()
	case LoadProvider:
		return FromProvider(a.Provider)
	}
	return s
}
