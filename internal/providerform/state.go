// Package providerform holds the provider editor state behind a single reducer.
package providerform

import (
	"maps"
	"slices"

	"github.com/pysugar/nexus-console/internal/db/models"
)

// Mode distinguishes creating a provider from editing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type BasicInfo struct {
	Name         string
	URL          string
	Key          string // empty in edit mode keeps the stored key
	WebsiteURL   string
	ProviderType string
	IsEnabled    bool
}

type RoutingSettings struct {
	Weight           int
	Priority         int
	CostMultiplier   float64
	GroupTag         string
	ModelRedirects   map[string]string
	AllowedModels    []string
	PreserveClientIP bool
	MaxRetryAttempts *int
}

type RateLimitSettings struct {
	Limit5hUSD              *float64
	LimitDailyUSD           *float64
	DailyResetTime          string
	LimitWeeklyUSD          *float64
	LimitMonthlyUSD         *float64
	LimitTotalUSD           *float64
	LimitConcurrentSessions *int
}

type CircuitBreakerSettings struct {
	FailureThreshold         int // 0 disables the breaker
	OpenDurationMs           int64
	HalfOpenSuccessThreshold int
}

type NetworkSettings struct {
	ProxyURL                     string
	ProxyFallbackToDirect        bool
	FirstByteTimeoutStreamingMs  int64
	StreamingIdleTimeoutMs       int64
	RequestTimeoutNonStreamingMs int64
}

type MCPSettings struct {
	PassthroughType string
	PassthroughURL  string
}

type UIState struct {
	ActiveTab         Tab
	ShowConfirmDialog bool
	IsPending         bool
}

// FormState is the whole editor state. Sub-objects are replaced, never mutated in place.
type FormState struct {
	Mode           Mode
	ProviderID     int64
	Basic          BasicInfo
	Routing        RoutingSettings
	RateLimit      RateLimitSettings
	CircuitBreaker CircuitBreakerSettings
	Network        NetworkSettings
	MCP            MCPSettings
	UI             UIState
}

const (
	DefaultFailureThreshold         = 5
	DefaultOpenDurationMs           = 30 * 60 * 1000
	DefaultHalfOpenSuccessThreshold = 2
)

// DefaultState is the state of an empty create form.
func DefaultState() FormState {
	return FormState{
		Mode: ModeCreate,
		Basic: BasicInfo{
			ProviderType: "claude",
			IsEnabled:    true,
		},
		Routing: RoutingSettings{
			Weight:         1,
			CostMultiplier: 1,
		},
		CircuitBreaker: CircuitBreakerSettings{
			FailureThreshold:         DefaultFailureThreshold,
			OpenDurationMs:           DefaultOpenDurationMs,
			HalfOpenSuccessThreshold: DefaultHalfOpenSuccessThreshold,
		},
		MCP: MCPSettings{PassthroughType: "none"},
		UI:  UIState{ActiveTab: TabBasic},
	}
}

// FromProvider builds an edit form for a stored provider. The key is left empty.
func FromProvider(p models.Provider) FormState {
	mcpType := p.MCPPassthroughType
	if mcpType == "" {
		mcpType = "none"
	}
	return FormState{
		Mode:       ModeEdit,
		ProviderID: p.ID,
		Basic: BasicInfo{
			Name:         p.Name,
			URL:          p.URL,
			WebsiteURL:   p.WebsiteURL,
			ProviderType: p.ProviderType,
			IsEnabled:    p.IsEnabled,
		},
		Routing: RoutingSettings{
			Weight:           p.Weight,
			Priority:         p.Priority,
			CostMultiplier:   p.CostMultiplier,
			GroupTag:         p.GroupTag,
			ModelRedirects:   maps.Clone(p.ModelRedirects),
			AllowedModels:    slices.Clone(p.AllowedModels),
			PreserveClientIP: p.PreserveClientIP,
			MaxRetryAttempts: clonePtr(p.MaxRetryAttempts),
		},
		RateLimit: RateLimitSettings{
			Limit5hUSD:              clonePtr(p.Limit5hUSD),
			LimitDailyUSD:           clonePtr(p.LimitDailyUSD),
			DailyResetTime:          p.DailyResetTime,
			LimitWeeklyUSD:          clonePtr(p.LimitWeeklyUSD),
			LimitMonthlyUSD:         clonePtr(p.LimitMonthlyUSD),
			LimitTotalUSD:           clonePtr(p.LimitTotalUSD),
			LimitConcurrentSessions: clonePtr(p.LimitConcurrentSessions),
		},
		CircuitBreaker: CircuitBreakerSettings{
			FailureThreshold:         p.CircuitBreakerFailureThreshold,
			OpenDurationMs:           p.CircuitBreakerOpenDurationMs,
			HalfOpenSuccessThreshold: p.CircuitBreakerHalfOpenSuccessThreshold,
		},
		Network: NetworkSettings{
			ProxyURL:                     p.ProxyURL,
			ProxyFallbackToDirect:        p.ProxyFallbackToDirect,
			FirstByteTimeoutStreamingMs:  p.FirstByteTimeoutStreamingMs,
			StreamingIdleTimeoutMs:       p.StreamingIdleTimeoutMs,
			RequestTimeoutNonStreamingMs: p.RequestTimeoutNonStreamingMs,
		},
		MCP: MCPSettings{
			PassthroughType: mcpType,
			PassthroughURL:  p.MCPPassthroughURL,
		},
		UI: UIState{ActiveTab: TabBasic},
	}
}

// ToProvider converts the form into the payload sent to the admin API.
func ToProvider(s FormState) models.Provider {
	mcpType := s.MCP.PassthroughType
	if mcpType == "none" {
		mcpType = ""
	}
	return models.Provider{
		ID:                                     s.ProviderID,
		Name:                                   s.Basic.Name,
		URL:                                    s.Basic.URL,
		Key:                                    s.Basic.Key,
		WebsiteURL:                             s.Basic.WebsiteURL,
		ProviderType:                           s.Basic.ProviderType,
		IsEnabled:                              s.Basic.IsEnabled,
		Weight:                                 s.Routing.Weight,
		Priority:                               s.Routing.Priority,
		CostMultiplier:                         s.Routing.CostMultiplier,
		GroupTag:                               s.Routing.GroupTag,
		ModelRedirects:                         maps.Clone(s.Routing.ModelRedirects),
		AllowedModels:                          slices.Clone(s.Routing.AllowedModels),
		PreserveClientIP:                       s.Routing.PreserveClientIP,
		MaxRetryAttempts:                       clonePtr(s.Routing.MaxRetryAttempts),
		Limit5hUSD:                             clonePtr(s.RateLimit.Limit5hUSD),
		LimitDailyUSD:                          clonePtr(s.RateLimit.LimitDailyUSD),
		DailyResetTime:                         s.RateLimit.DailyResetTime,
		LimitWeeklyUSD:                         clonePtr(s.RateLimit.LimitWeeklyUSD),
		LimitMonthlyUSD:                        clonePtr(s.RateLimit.LimitMonthlyUSD),
		LimitTotalUSD:                          clonePtr(s.RateLimit.LimitTotalUSD),
		LimitConcurrentSessions:                clonePtr(s.RateLimit.LimitConcurrentSessions),
		CircuitBreakerFailureThreshold:         s.CircuitBreaker.FailureThreshold,
		CircuitBreakerOpenDurationMs:           s.CircuitBreaker.OpenDurationMs,
		CircuitBreakerHalfOpenSuccessThreshold: s.CircuitBreaker.HalfOpenSuccessThreshold,
		ProxyURL:                               s.Network.ProxyURL,
		ProxyFallbackToDirect:                  s.Network.ProxyFallbackToDirect,
		FirstByteTimeoutStreamingMs:            s.Network.FirstByteTimeoutStreamingMs,
		StreamingIdleTimeoutMs:                 s.Network.StreamingIdleTimeoutMs,
		RequestTimeoutNonStreamingMs:           s.Network.RequestTimeoutNonStreamingMs,
		MCPPassthroughType:                     mcpType,
		MCPPassthroughURL:                      s.MCP.PassthroughURL,
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
