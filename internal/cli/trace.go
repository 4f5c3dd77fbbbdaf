package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newTraceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <usage-log-id>",
		Short: "Show the provider decision chain of one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid usage log id %q", args[0])
			}
			tr, err := a.client().GetUsageLogTrace(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := a.stdout
			l := tr.Log
			fmt.Fprintf(out, "Request #%d  %s  status %d  %s\n", l.ID, l.Endpoint, l.StatusCode, l.Model)
			if tr.OutputRate != nil {
				fmt.Fprintf(out, "Output rate: %.1f tok/s\n", *tr.OutputRate)
			}
			if b := tr.BlockedReason; b != nil {
				fmt.Fprintf(out, "Blocked by %s", l.BlockedBy)
				if b.Word != "" {
					fmt.Fprintf(out, " (matched %q)", b.Word)
				}
				fmt.Fprintln(out)
			}

			if len(tr.Steps) == 0 {
				fmt.Fprintln(out, "No decision chain recorded.")
				return nil
			}
			fmt.Fprintln(out)
			tw := newTable(out)
			fmt.Fprintln(tw, "STEP\tSTATUS\tTITLE\tDETAIL\tTIME")
			for _, s := range tr.Steps {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Step, s.Status, s.Title, s.Subtitle, s.RelativeTime)
			}
			tw.Flush()

			fmt.Fprintln(out)
			fmt.Fprintln(out, tr.Timeline)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate usage counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client().GetUsageStats(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(a.stdout)
			fmt.Fprintf(tw, "Requests\t%d\n", st.TotalRequests)
			fmt.Fprintf(tw, "Succeeded\t%d\n", st.SuccessCount)
			fmt.Fprintf(tw, "Failed\t%d\n", st.ErrorCount)
			fmt.Fprintf(tw, "Cost\t$%.4f\n", st.TotalCostUSD)
			return tw.Flush()
		},
	}
}
