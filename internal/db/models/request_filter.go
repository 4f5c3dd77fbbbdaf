package models

import "time"

// Request filter scopes, actions and bindings.
const (
	FilterScopeHeader = "header"
	FilterScopeBody   = "body"

	FilterActionRemove      = "remove"
	FilterActionSet         = "set"
	FilterActionJSONPath    = "json_path"
	FilterActionTextReplace = "text_replace"

	FilterBindingGlobal    = "global"
	FilterBindingProviders = "providers"
	FilterBindingGroups    = "groups"
)

// RequestFilter rewrites outgoing requests before they reach a provider.
type RequestFilter struct {
	ID          int64    `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"not null" json:"name"`
	Description string   `json:"description,omitempty"`
	Scope       string   `gorm:"not null" json:"scope"`
	Action      string   `gorm:"not null" json:"action"`
	MatchType   string   `json:"matchType,omitempty"`
	Target      string   `gorm:"not null" json:"target"`
	Replacement string   `gorm:"type:text" json:"replacement,omitempty"`
	Priority    int      `gorm:"index" json:"priority"`
	IsEnabled   bool     `json:"isEnabled"`
	BindingType string   `json:"bindingType"`
	ProviderIDs []int64  `gorm:"serializer:json" json:"providerIds,omitempty"`
	GroupTags   []string `gorm:"serializer:json" json:"groupTags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
