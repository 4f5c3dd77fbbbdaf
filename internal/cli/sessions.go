package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pysugar/nexus-console/internal/logfilter"
	"github.com/pysugar/nexus-console/internal/session"
	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect captured session requests",
	}
	cmd.AddCommand(newSessionShowCmd(a), newSessionTerminateCmd(a))
	return cmd
}

func newSessionShowCmd(a *app) *cobra.Command {
	var (
		seq    string
		page   int
		size   int
		export string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one request of a session and the session's request list",
		Example: `  logwatch session show 0123abcd-... --seq 3
  logwatch session show 0123abcd-... --export request --out ./dumps`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var sequence *int
			if seq != "" {
				n, ok := logfilter.ParseSequence(seq)
				if !ok {
					return fmt.Errorf("invalid --seq %q", seq)
				}
				sequence = &n
			}
			kind := session.ExportKind(export)
			if export != "" && kind != session.ExportRequest && kind != session.ExportMessages {
				return fmt.Errorf("--export must be %q or %q", session.ExportRequest, session.ExportMessages)
			}

			c := a.client()
			ctx := cmd.Context()
			loader := session.Loader{Source: c, PageSize: size, Order: "desc"}
			pg, err := loader.Load(ctx, id, sequence, page)
			if err != nil {
				return err
			}
			a.printSession(id, pg)

			if export == "" {
				return nil
			}
			view := session.NewMessagesView(c)
			if kind == session.ExportMessages {
				has, err := view.CheckHasMessages(ctx, id, sequence)
				if err != nil {
					return err
				}
				if !has {
					return errors.New("no messages captured for this request")
				}
			}
			if _, err := view.Load(ctx, id, sequence); err != nil {
				return err
			}
			name, body, ok := view.Export(kind)
			if !ok {
				return fmt.Errorf("no %s payload captured for this request", kind)
			}
			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&seq, "seq", "", "request sequence, defaults to the latest")
	cmd.Flags().IntVar(&page, "page", 1, "page of the request list")
	cmd.Flags().IntVar(&size, "page-size", 20, "rows per page of the request list")
	cmd.Flags().StringVar(&export, "export", "", "write the request or messages payload to a file")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for --export")
	return cmd
}

func (a *app) printSession(id string, pg *session.Page) {
	out := a.stdout
	d := pg.Details
	fmt.Fprintf(out, "Session %s, request #%d\n", id, d.CurrentSequence)
	if d.PrevSequence != nil || d.NextSequence != nil {
		fmt.Fprintf(out, "  prev: %s  next: %s\n", seqLabel(d.PrevSequence), seqLabel(d.NextSequence))
	}
	if st := d.SessionStats; st != nil {
		fmt.Fprintf(out, "  %d requests, %d/%d tokens, $%.4f\n", st.RequestCount, st.TotalInputTokens, st.TotalOutputTokens, st.TotalCostUSD)
	}
	fmt.Fprintln(out)

	tw := newTable(out)
	fmt.Fprintln(tw, "SEQ\tTIME\tSTATUS\tMODEL\tPROVIDER\tTOKENS\tCOST")
	for _, r := range pg.Requests.Requests {
		marker := ""
		if r.Sequence == d.CurrentSequence {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s%d\t%s\t%d\t%s\t%s\t%d/%d\t$%.4f\n",
			marker, r.Sequence,
			time.UnixMilli(r.CreatedAt).Format("01-02 15:04:05"),
			r.StatusCode, r.Model, r.ProviderName,
			r.InputTokens, r.OutputTokens, r.CostUSD)
	}
	tw.Flush()
	if pg.Requests.HasMore {
		fmt.Fprintf(out, "%d requests in total, more with --page\n", pg.Requests.Total)
	}
}

func seqLabel(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func newSessionTerminateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "terminate <session-id>",
		Short: "Release the provider binding of an active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().TerminateActiveSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Terminated session %s\n", args[0])
			return nil
		},
	}
}
