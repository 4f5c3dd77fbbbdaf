package cli

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/logfilter"
	"github.com/pysugar/nexus-console/internal/poller"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		query string
		once  bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the usage-log list, marking rows that arrive between refreshes",
		Example: `  logwatch watch --filter 'statusCode=!200&model=claude-sonnet'
  logwatch watch --filter 'page=2' --once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := url.ParseQuery(query)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}
			filters := logfilter.Parse(q)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, filters, once)
		},
	}
	cmd.Flags().StringVar(&query, "filter", "", "usage-log filters as a URL query (userId, providerId, statusCode, model, page, ...)")
	cmd.Flags().BoolVar(&once, "once", false, "print one page and exit")
	return cmd
}

func (a *app) watch(ctx context.Context, filters logfilter.Filters, once bool) error {
	p := poller.New(a.client(), filters, poller.Options{
		Interval:    a.interval,
		AutoRefresh: !once,
	})

	if err := p.Load(ctx); err != nil {
		return err
	}
	a.printPage(p.Snapshot())
	if once {
		return nil
	}
	if !p.Snapshot().AutoRefresh {
		fmt.Fprintln(a.stderr, "auto refresh is off past page 1")
		return nil
	}

	updates, unsubscribe := p.Subscribe()
	defer unsubscribe()
	go p.Run(ctx)

	last := p.Snapshot().UpdatedAt
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-updates:
			if snap.Loading {
				continue
			}
			if snap.Err != nil {
				fmt.Fprintf(a.stderr, "refresh failed: %v\n", snap.Err)
				continue
			}
			if !snap.UpdatedAt.After(last) {
				continue
			}
			last = snap.UpdatedAt
			a.printNew(snap)
		}
	}
}

func (a *app) printPage(snap poller.Snapshot) {
	tw := newTable(a.stdout)
	fmt.Fprintln(tw, usageLogHeader)
	for _, l := range snap.Logs {
		fmt.Fprintln(tw, usageLogRow(l))
	}
	tw.Flush()
	f := snap.Filters
	fmt.Fprintf(a.stdout, "%d logs, page %d of %d\n", snap.Total, f.CurrentPage(), pageCount(snap.Total, f.Limit()))
}

func (a *app) printNew(snap poller.Snapshot) {
	if len(snap.NewIDs) == 0 {
		return
	}
	rows := make([]models.UsageLog, 0, len(snap.NewIDs))
	for _, l := range snap.Logs {
		if slices.Contains(snap.NewIDs, l.ID) {
			rows = append(rows, l)
		}
	}
	tw := newTable(a.stdout)
	for _, l := range rows {
		fmt.Fprintln(tw, a.highlight("+ "+usageLogRow(l)))
	}
	tw.Flush()
	fmt.Fprintf(a.stdout, "%s: %d new, %d total\n", snap.UpdatedAt.Format(time.TimeOnly), len(rows), snap.Total)
}

func pageCount(total int64, size int) int64 {
	if size <= 0 || total == 0 {
		return 1
	}
	return (total + int64(size) - 1) / int64(size)
}
