package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionRequest is one request captured inside a client session.
type SessionRequest struct {
	ID           string  `gorm:"primaryKey" json:"id"`
	SessionID    string  `gorm:"uniqueIndex:idx_session_seq;not null" json:"sessionId"`
	Sequence     int     `gorm:"uniqueIndex:idx_session_seq" json:"sequence"`
	CreatedAt    int64   `gorm:"autoCreateTime:milli" json:"createdAt"`
	Model        string  `json:"model,omitempty"`
	ProviderName string  `json:"providerName,omitempty"`
	StatusCode   int     `json:"statusCode"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
	DurationMs   *int64  `json:"durationMs,omitempty"`

	RequestBody     string            `gorm:"type:text" json:"requestBody,omitempty"`
	Messages        string            `gorm:"type:text" json:"messages,omitempty"`
	ResponseBody    string            `gorm:"type:text" json:"response,omitempty"`
	RequestHeaders  map[string]string `gorm:"serializer:json" json:"requestHeaders,omitempty"`
	ResponseHeaders map[string]string `gorm:"serializer:json" json:"responseHeaders,omitempty"`
	RequestMeta     map[string]any    `gorm:"serializer:json" json:"requestMeta,omitempty"`
	ResponseMeta    map[string]any    `gorm:"serializer:json" json:"responseMeta,omitempty"`
	SpecialSettings []map[string]any  `gorm:"serializer:json" json:"specialSettings,omitempty"`
}

// BeforeCreate assigns a random id.
func (r *SessionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ActiveSession tracks a client session the gateway currently pins to a provider.
type ActiveSession struct {
	SessionID    string     `gorm:"primaryKey" json:"sessionId"`
	UserID       int64      `json:"userId"`
	KeyID        int64      `json:"keyId"`
	ProviderID   int64      `json:"providerId"`
	StartedAt    time.Time  `json:"startedAt"`
	LastSeenAt   time.Time  `json:"lastSeenAt"`
	TerminatedAt *time.Time `json:"terminatedAt,omitempty"`
}

// SessionStats aggregates every request of a session.
type SessionStats struct {
	RequestCount      int64   `json:"requestCount"`
	TotalInputTokens  int64   `json:"totalInputTokens"`
	TotalOutputTokens int64   `json:"totalOutputTokens"`
	TotalCostUSD      float64 `json:"totalCostUsd"`
	FirstRequestAt    int64   `json:"firstRequestAt"`
	LastRequestAt     int64   `json:"lastRequestAt"`
}

// SessionDetails is the detail view of one request in a session.
// Body fields hold raw JSON when the captured payload was JSON and a JSON string otherwise.
type SessionDetails struct {
	RequestBody     json.RawMessage   `json:"requestBody"`
	Messages        json.RawMessage   `json:"messages"`
	Response        json.RawMessage   `json:"response"`
	RequestHeaders  map[string]string `json:"requestHeaders"`
	ResponseHeaders map[string]string `json:"responseHeaders"`
	RequestMeta     map[string]any    `json:"requestMeta"`
	ResponseMeta    map[string]any    `json:"responseMeta"`
	SessionStats    *SessionStats     `json:"sessionStats"`
	SpecialSettings []map[string]any  `json:"specialSettings"`
	CurrentSequence int               `json:"currentSequence"`
	PrevSequence    *int              `json:"prevSequence"`
	NextSequence    *int              `json:"nextSequence"`
}

// SessionRequestItem is one row of the session request list.
type SessionRequestItem struct {
	ID           string  `json:"id"`
	Sequence     int     `json:"sequence"`
	CreatedAt    int64   `json:"createdAt"`
	Model        string  `json:"model,omitempty"`
	ProviderName string  `json:"providerName,omitempty"`
	StatusCode   int     `json:"statusCode"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
	DurationMs   *int64  `json:"durationMs,omitempty"`
}

// SessionRequestPage is one page of a session's request list.
type SessionRequestPage struct {
	Requests []SessionRequestItem `json:"requests"`
	Total    int64                `json:"total"`
	HasMore  bool                 `json:"hasMore"`
}
