package models

import "time"

// Provider is an upstream endpoint the gateway can route requests to.
type Provider struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"uniqueIndex;not null" json:"name"`
	URL          string `gorm:"not null" json:"url"`
	Key          string `json:"key,omitempty"`
	WebsiteURL   string `json:"websiteUrl,omitempty"`
	ProviderType string `json:"providerType"`
	TypeLabel    string `gorm:"-" json:"typeLabel,omitempty"` // display name, filled on API responses
	IsEnabled    bool   `json:"isEnabled"`

	// Routing
	Weight           int               `json:"weight"`
	Priority         int               `json:"priority"`
	CostMultiplier   float64           `json:"costMultiplier"`
	GroupTag         string            `gorm:"index" json:"groupTag,omitempty"`
	ModelRedirects   map[string]string `gorm:"serializer:json" json:"modelRedirects,omitempty"`
	AllowedModels    []string          `gorm:"serializer:json" json:"allowedModels,omitempty"`
	PreserveClientIP bool              `json:"preserveClientIp"`
	MaxRetryAttempts *int              `json:"maxRetryAttempts,omitempty"`

	// Rate limits, USD
	Limit5hUSD              *float64 `gorm:"column:limit_5h_usd" json:"limit5hUsd,omitempty"`
	LimitDailyUSD           *float64 `json:"limitDailyUsd,omitempty"`
	DailyResetTime          string   `json:"dailyResetTime,omitempty"`
	LimitWeeklyUSD          *float64 `json:"limitWeeklyUsd,omitempty"`
	LimitMonthlyUSD         *float64 `json:"limitMonthlyUsd,omitempty"`
	LimitTotalUSD           *float64 `json:"limitTotalUsd,omitempty"`
	LimitConcurrentSessions *int     `json:"limitConcurrentSessions,omitempty"`

	// Circuit breaker
	CircuitBreakerFailureThreshold         int   `json:"circuitBreakerFailureThreshold"`
	CircuitBreakerOpenDurationMs           int64 `json:"circuitBreakerOpenDurationMs"`
	CircuitBreakerHalfOpenSuccessThreshold int   `json:"circuitBreakerHalfOpenSuccessThreshold"`

	// Network
	ProxyURL                     string `json:"proxyUrl,omitempty"`
	ProxyFallbackToDirect        bool   `json:"proxyFallbackToDirect"`
	FirstByteTimeoutStreamingMs  int64  `json:"firstByteTimeoutStreamingMs"`
	StreamingIdleTimeoutMs       int64  `json:"streamingIdleTimeoutMs"`
	RequestTimeoutNonStreamingMs int64  `json:"requestTimeoutNonStreamingMs"`

	// MCP passthrough
	MCPPassthroughType string `gorm:"column:mcp_passthrough_type" json:"mcpPassthroughType,omitempty"`
	MCPPassthroughURL  string `gorm:"column:mcp_passthrough_url" json:"mcpPassthroughUrl,omitempty"`

	// Runtime state, owned by the gateway and reset from the console.
	CircuitState        string     `json:"circuitState,omitempty"`
	CircuitFailureCount int        `json:"circuitFailureCount"`
	CircuitOpenedAt     *time.Time `json:"circuitOpenedAt,omitempty"`
	TotalCostUSD        float64    `json:"totalCostUsd"`
	TotalCostResetAt    *time.Time `json:"totalCostResetAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProviderOption is the id/name pair offered when binding request filters.
type ProviderOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
