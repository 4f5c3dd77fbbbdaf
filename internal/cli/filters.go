package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFiltersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filters",
		Aliases: []string{"filter"},
		Short:   "Inspect request filters",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List request filters by priority",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fs, err := a.client().ListRequestFilters(cmd.Context())
				if err != nil {
					return err
				}
				tw := newTable(a.stdout)
				fmt.Fprintln(tw, "ID\tNAME\tSCOPE\tACTION\tTARGET\tPRIORITY\tENABLED\tBINDING")
				for _, f := range fs {
					binding := f.BindingType
					switch {
					case len(f.GroupTags) > 0:
						binding += ":" + strings.Join(f.GroupTags, ",")
					case len(f.ProviderIDs) > 0:
						binding += fmt.Sprintf(":%v", f.ProviderIDs)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
						f.ID, f.Name, f.Scope, f.Action, f.Target, f.Priority, f.IsEnabled, binding)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Reload the gateway's request filter cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := a.client().RefreshRequestFiltersCache(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Loaded %d enabled filters\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "groups",
			Short: "List provider group tags filters can bind to",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				gs, err := a.client().GetDistinctProviderGroups(cmd.Context())
				if err != nil {
					return err
				}
				for _, g := range gs {
					fmt.Fprintln(a.stdout, g)
				}
				return nil
			},
		},
	)
	return cmd
}
