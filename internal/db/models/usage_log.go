package models

import (
	"github.com/pysugar/nexus-console/internal/chain"
	"gorm.io/gorm"
)

// UsageLog is one proxied request as recorded by the gateway.
type UsageLog struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	CreatedAt       int64  `gorm:"index;autoCreateTime:milli" json:"createdAt"` // epoch ms
	UserID          int64  `gorm:"index" json:"userId"`
	UserName        string `json:"userName,omitempty"`
	KeyID           int64  `gorm:"index" json:"keyId"`
	KeyName         string `json:"keyName,omitempty"`
	ProviderID      int64  `gorm:"index" json:"providerId"`
	ProviderName    string `json:"providerName,omitempty"`
	SessionID       string `gorm:"index" json:"sessionId,omitempty"`
	RequestSequence int    `json:"requestSequence,omitempty"`
	Model           string `gorm:"index" json:"model,omitempty"`
	OriginalModel   string `json:"originalModel,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	StatusCode      int    `gorm:"index" json:"statusCode"`

	InputTokens              int64    `json:"inputTokens"`
	OutputTokens             int64    `json:"outputTokens"`
	CacheCreationInputTokens int64    `json:"cacheCreationInputTokens,omitempty"`
	CacheReadInputTokens     int64    `json:"cacheReadInputTokens,omitempty"`
	CostUSD                  float64  `json:"costUsd"`
	CostMultiplier           *float64 `json:"costMultiplier,omitempty"`
	DurationMs               *int64   `json:"durationMs,omitempty"`
	TTFBMs                   *int64   `gorm:"column:ttfb_ms" json:"ttfbMs,omitempty"`
	RetryCount               int      `gorm:"index" json:"retryCount"`

	ErrorMessage  string `gorm:"type:text" json:"errorMessage,omitempty"`
	BlockedBy     string `json:"blockedBy,omitempty"`
	BlockedReason string `gorm:"type:text" json:"blockedReason,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`

	ProviderChain []chain.ProviderChainItem `gorm:"serializer:json" json:"providerChain,omitempty"`
}

// BeforeSave keeps RetryCount in step with the stored chain.
func (l *UsageLog) BeforeSave(tx *gorm.DB) error {
	if len(l.ProviderChain) > 0 {
		l.RetryCount = chain.RetryCount(l.ProviderChain)
	}
	return nil
}

// UsageLogPage is one page of the filtered usage-log list.
type UsageLogPage struct {
	Logs  []UsageLog `json:"logs"`
	Total int64      `json:"total"`
}

// UsageStats holds aggregated counters over all recorded usage logs.
type UsageStats struct {
	TotalRequests int64   `json:"totalRequests"`
	SuccessCount  int64   `json:"successCount"`
	ErrorCount    int64   `json:"errorCount"`
	TotalCostUSD  float64 `json:"totalCostUsd"`
}

// UsageLogTrace is the decision-chain view of one usage log.
type UsageLogTrace struct {
	Log             UsageLog               `json:"log"`
	Steps           []chain.StepDescriptor `json:"steps"`
	Timeline        string                 `json:"timeline"`
	TotalDurationMs int64                  `json:"totalDurationMs"`
	BlockedReason   *chain.BlockedReason   `json:"blockedReason,omitempty"`
	OutputRate      *float64               `json:"outputRate,omitempty"` // tokens/s, nil when unknown or hidden
}

// NewUsageLogTrace derives the trace view of l.
func NewUsageLogTrace(l UsageLog, tr chain.Translate) UsageLogTrace {
	timeline, total := chain.FormatTimeline(l.ProviderChain, tr)
	t := UsageLogTrace{
		Log:             l,
		Steps:           chain.BuildSteps(l.ProviderChain, tr),
		Timeline:        timeline,
		TotalDurationMs: total,
		BlockedReason:   chain.ParseBlockedReason(l.BlockedReason),
	}
	if rate, ok := chain.CalculateOutputRate(l.OutputTokens, l.DurationMs, l.TTFBMs); ok &&
		!chain.ShouldHideOutputRate(rate, l.DurationMs, l.TTFBMs) {
		t.OutputRate = &rate
	}
	return t
}

// UsageIngest is one finished request pushed by the gateway. Request carries the
// captured session payload and is optional.
type UsageIngest struct {
	Log     UsageLog        `json:"log"`
	Request *SessionRequest `json:"request,omitempty"`
}
