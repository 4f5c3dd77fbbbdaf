package chain

import (
	"fmt"
	"strconv"
)

// StepKind identifies what a step describes.
type StepKind string

const (
	KindSessionReuse      StepKind = "session_reuse"
	KindInitialSelection  StepKind = "initial_selection"
	KindHealthCheck       StepKind = "health_check"
	KindPrioritySelection StepKind = "priority_selection"
	KindAttempt           StepKind = "attempt"
)

// Icon names the glyph a renderer should draw for a step.
type Icon string

const (
	IconSessionReuse Icon = "link"
	IconSearch       Icon = "search"
	IconFilter       Icon = "filter"
	IconLayers       Icon = "layers"
	IconRetry        Icon = "refresh"
	IconSuccess      Icon = "check"
	IconFailure      Icon = "x"
	IconServer       Icon = "server"
)

// StepDetails is the payload a renderer expands under a step card.
type StepDetails struct {
	Item              *ProviderChainItem `json:"item,omitempty"`
	DecisionContext   *DecisionContext   `json:"decisionContext,omitempty"`
	FilteredProviders []FilteredProvider `json:"filteredProviders,omitempty"`
	Candidates        []Candidate        `json:"candidates,omitempty"`
	SelectedPriority  *int               `json:"selectedPriority,omitempty"`
	PriorityLevels    []int              `json:"priorityLevels,omitempty"`
}

// StepDescriptor is one numbered card in the logic trace.
type StepDescriptor struct {
	Step         int         `json:"step"`
	Kind         StepKind    `json:"kind"`
	Icon         Icon        `json:"icon"`
	Title        string      `json:"title"`
	Subtitle     string      `json:"subtitle,omitempty"`
	Status       StepStatus  `json:"status"`
	Timestamp    *int64      `json:"timestamp,omitempty"`
	RelativeTime string      `json:"relativeTime,omitempty"`
	IsLast       bool        `json:"isLast"`
	ChainIndex   int         `json:"chainIndex"`
	Details      StepDetails `json:"details"`
}

// FilteredProviders flattens every item's filtered providers in chain order.
// Duplicates are kept.
func FilteredProviders(items []ProviderChainItem) []FilteredProvider {
	var out []FilteredProvider
	for _, item := range items {
		if item.DecisionContext == nil {
			continue
		}
		out = append(out, item.DecisionContext.FilteredProviders...)
	}
	return out
}

// BuildSteps derives the ordered step list for a provider chain. A nil translate uses
// DefaultTranslate. Step numbers are contiguous from 1.
func BuildSteps(items []ProviderChainItem, tr Translate) []StepDescriptor {
	if len(items) == 0 {
		return nil
	}
	if tr == nil {
		tr = DefaultTranslate
	}

	var base int64
	if items[0].Timestamp != nil {
		base = *items[0].Timestamp
	}

	steps := make([]StepDescriptor, 0, len(items)+3)
	offset := 0

	if IsSessionReuseFlow(items) {
		steps = append(steps, sessionReuseStep(items[0], tr))
		offset = 1
	} else {
		first := items[0]
		if ctx := first.DecisionContext; ctx != nil {
			steps = append(steps, StepDescriptor{
				Step:   len(steps) + 1,
				Kind:   KindInitialSelection,
				Icon:   IconSearch,
				Title:  tr("step.initialSelection.title", nil),
				Status: StatusSuccess,
				Subtitle: tr("step.initialSelection.subtitle", map[string]string{
					"enabled": strconv.Itoa(ctx.EnabledProviders),
					"total":   strconv.Itoa(ctx.TotalProviders),
				}),
				ChainIndex: -1,
				Details:    StepDetails{DecisionContext: ctx},
			})
		}
		if filtered := FilteredProviders(items); len(filtered) > 0 {
			steps = append(steps, StepDescriptor{
				Step:       len(steps) + 1,
				Kind:       KindHealthCheck,
				Icon:       IconFilter,
				Title:      tr("step.healthCheck.title", nil),
				Subtitle:   tr("step.healthCheck.subtitle", map[string]string{"count": strconv.Itoa(len(filtered))}),
				Status:     StatusWarning,
				ChainIndex: -1,
				Details:    StepDetails{FilteredProviders: filtered},
			})
		}
		if ctx := first.DecisionContext; ctx != nil && len(ctx.PriorityLevels) > 0 {
			priority := ctx.PriorityLevels[0]
			if ctx.SelectedPriority != nil {
				priority = *ctx.SelectedPriority
			}
			steps = append(steps, StepDescriptor{
				Step:  len(steps) + 1,
				Kind:  KindPrioritySelection,
				Icon:  IconLayers,
				Title: tr("step.prioritySelection.title", nil),
				Subtitle: tr("step.prioritySelection.subtitle", map[string]string{
					"priority": strconv.Itoa(priority),
					"count":    strconv.Itoa(len(ctx.CandidatesAtPriority)),
				}),
				Status:     StatusSuccess,
				ChainIndex: -1,
				Details: StepDetails{
					Candidates:       ctx.CandidatesAtPriority,
					SelectedPriority: ctx.SelectedPriority,
					PriorityLevels:   ctx.PriorityLevels,
				},
			})
		}
		offset = len(steps)
	}

	for i := range items {
		item := items[i]
		step := attemptStep(item, tr)
		step.Step = offset + i + 1
		step.ChainIndex = i
		step.IsLast = i == len(items)-1
		if item.Timestamp != nil {
			step.RelativeTime = fmt.Sprintf("+%dms", *item.Timestamp-base)
		}
		steps = append(steps, step)
	}
	return steps
}

func sessionReuseStep(item ProviderChainItem, tr Translate) StepDescriptor {
	subtitle := tr("step.sessionReuse.subtitle", map[string]string{"name": item.Name})
	if ctx := item.DecisionContext; ctx != nil && ctx.SessionID != "" {
		subtitle = ctx.SessionID
	}
	return StepDescriptor{
		Step:       1,
		Kind:       KindSessionReuse,
		Icon:       IconSessionReuse,
		Title:      tr("step.sessionReuse.title", nil),
		Subtitle:   subtitle,
		Status:     StatusSessionReuse,
		Timestamp:  item.Timestamp,
		ChainIndex: -1,
		Details:    StepDetails{Item: &item, DecisionContext: item.DecisionContext},
	}
}

func attemptStep(item ProviderChainItem, tr Translate) StepDescriptor {
	status := ClassifyStatus(item)
	reuse := isSessionReuse(item)

	step := StepDescriptor{
		Kind:      KindAttempt,
		Icon:      attemptIcon(item, status),
		Status:    status,
		Timestamp: item.Timestamp,
		Details:   StepDetails{Item: &item},
	}

	switch {
	case reuse:
		step.Title = tr("step.sessionReuse.execute", nil)
	case isRetry(item):
		step.Title = tr("step.retry.title", map[string]string{"attempt": strconv.Itoa(item.AttemptNumber)})
	default:
		step.Title = tr("step.attempt.title", map[string]string{"name": item.Name})
	}

	switch {
	case item.StatusCode != 0:
		step.Subtitle = tr("step.httpStatus", map[string]string{"code": strconv.Itoa(item.StatusCode)})
	case reuse:
		step.Subtitle = item.Name
	default:
		step.Subtitle = reasonLabel(tr, item.Reason)
	}
	return step
}

func attemptIcon(item ProviderChainItem, status StepStatus) Icon {
	switch {
	case status == StatusSessionReuse:
		return IconSessionReuse
	case isRetry(item):
		return IconRetry
	case status == StatusSuccess:
		return IconSuccess
	case status == StatusFailure:
		return IconFailure
	default:
		return IconServer
	}
}
