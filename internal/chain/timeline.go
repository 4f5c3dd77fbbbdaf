package chain

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTimeline renders the chain as plain text, one line per item, and returns the
// total duration between the first and last timestamped item.
func FormatTimeline(items []ProviderChainItem, tr Translate) (string, int64) {
	if len(items) == 0 {
		return "", 0
	}
	if tr == nil {
		tr = DefaultTranslate
	}

	var first, last *int64
	for i := range items {
		if ts := items[i].Timestamp; ts != nil {
			if first == nil {
				first = ts
			}
			last = ts
		}
	}
	var base int64
	if first != nil {
		base = *first
	}

	var b strings.Builder
	for i, item := range items {
		offset := "      "
		if item.Timestamp != nil {
			offset = fmt.Sprintf("+%dms", *item.Timestamp-base)
		}
		fmt.Fprintf(&b, "[%s] #%d %s", offset, i+1, item.Name)
		if item.AttemptNumber > 0 {
			fmt.Fprintf(&b, " (attempt %d)", item.AttemptNumber)
		}
		if label := reasonLabel(tr, item.Reason); label != "" {
			b.WriteString(" - " + label)
		}
		if item.StatusCode != 0 {
			b.WriteString(" " + tr("step.httpStatus", map[string]string{"code": strconv.Itoa(item.StatusCode)}))
		}
		b.WriteString("\n")

		if r := item.ModelRedirect; r != nil {
			fmt.Fprintf(&b, "    model: %s -> %s\n", r.OriginalModel, r.RedirectedModel)
		}
		if item.CircuitState != "" {
			fmt.Fprintf(&b, "    circuit: %s", item.CircuitState)
			if item.CircuitFailureThreshold > 0 {
				fmt.Fprintf(&b, " (%d/%d)", item.CircuitFailureCount, item.CircuitFailureThreshold)
			}
			b.WriteString("\n")
		}
		if ctx := item.DecisionContext; ctx != nil {
			for _, fp := range ctx.FilteredProviders {
				fmt.Fprintf(&b, "    filtered: %s (%s)\n", fp.Name, fp.Reason)
			}
		}
		if item.ErrorMessage != "" {
			fmt.Fprintf(&b, "    error: %s\n", item.ErrorMessage)
		}
	}

	var total int64
	if first != nil && last != nil {
		total = *last - *first
	}
	b.WriteString(tr("timeline.total", map[string]string{"duration": strconv.FormatInt(total, 10)}))
	return b.String(), total
}
