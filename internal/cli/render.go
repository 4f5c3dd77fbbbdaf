package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pysugar/nexus-console/internal/chain"
	"github.com/pysugar/nexus-console/internal/db/models"
	"golang.org/x/term"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

const usageLogHeader = "ID\tTIME\tSTATUS\tMODEL\tPROVIDER\tTOKENS\tCOST\tDURATION\tRATE\tRETRIES"

// usageLogRow renders one list row. The output rate is left blank when it is
// unknown or not meaningful.
func usageLogRow(l models.UsageLog) string {
	model := l.Model
	if l.OriginalModel != "" && l.OriginalModel != l.Model {
		model = l.OriginalModel + " -> " + l.Model
	}
	duration := "-"
	if l.DurationMs != nil {
		duration = strconv.FormatInt(*l.DurationMs, 10) + "ms"
	}
	rate := ""
	if r, ok := chain.CalculateOutputRate(l.OutputTokens, l.DurationMs, l.TTFBMs); ok && !chain.ShouldHideOutputRate(r, l.DurationMs, l.TTFBMs) {
		rate = fmt.Sprintf("%.1f tok/s", r)
	}
	status := strconv.Itoa(l.StatusCode)
	if l.BlockedBy != "" {
		status += " (blocked)"
	}
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%d/%d\t$%.4f\t%s\t%s\t%d",
		l.ID,
		time.UnixMilli(l.CreatedAt).Format("01-02 15:04:05"),
		status,
		model,
		l.ProviderName,
		l.InputTokens, l.OutputTokens,
		l.CostUSD,
		duration,
		rate,
		l.RetryCount,
	)
}

func (a *app) highlight(s string) string {
	if !a.color {
		return s
	}
	return ansiBold + s + ansiReset
}
