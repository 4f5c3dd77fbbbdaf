package chain

import (
	"encoding/json"
	"strings"
)

// BlockedReason is the structured detail stored when a request filter blocked a request.
type BlockedReason struct {
	Word        string `json:"word,omitempty"`
	MatchType   string `json:"matchType,omitempty"`
	MatchedText string `json:"matchedText,omitempty"`
	FilterID    int64  `json:"filterId,omitempty"`
	FilterName  string `json:"filterName,omitempty"`
}

// ParseBlockedReason decodes a stored blocked reason. Anything that is not a JSON
// object yields nil; callers treat nil as "no structured detail".
func ParseBlockedReason(raw string) *BlockedReason {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var reason *BlockedReason
	if err := json.Unmarshal([]byte(raw), &reason); err != nil {
		return nil
	}
	return reason
}
