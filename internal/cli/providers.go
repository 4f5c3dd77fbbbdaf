package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pysugar/nexus-console/internal/client"
	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/providerform"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newProvidersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "providers",
		Aliases: []string{"provider"},
		Short:   "List and edit upstream providers",
	}
	cmd.AddCommand(
		newProvidersListCmd(a),
		newProviderFormCmd(a, false),
		newProviderFormCmd(a, true),
		newProviderIDCmd(a, "remove", "Delete a provider", func(ctx context.Context, c *client.Client, id int64) (string, error) {
			return "Removed provider " + strconv.FormatInt(id, 10), c.RemoveProvider(ctx, id)
		}),
		newProviderIDCmd(a, "key", "Print the unmasked API key of a provider", func(ctx context.Context, c *client.Client, id int64) (string, error) {
			return c.GetUnmaskedProviderKey(ctx, id)
		}),
		newProviderIDCmd(a, "reset-circuit", "Close the circuit breaker of a provider", func(ctx context.Context, c *client.Client, id int64) (string, error) {
			return "Circuit reset", c.ResetProviderCircuit(ctx, id)
		}),
		newProviderIDCmd(a, "reset-usage", "Restart total-usage accounting of a provider", func(ctx context.Context, c *client.Client, id int64) (string, error) {
			return "Total usage reset", c.ResetProviderTotalUsage(ctx, id)
		}),
	)
	return cmd
}

func newProvidersListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := a.client().ListProviders(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(a.stdout)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tENABLED\tPRIORITY\tWEIGHT\tGROUP\tURL\tKEY")
			for _, p := range ps {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d\t%d\t%s\t%s\t%s\n",
					p.ID, p.Name, typeLabel(p), p.IsEnabled, p.Priority, p.Weight, p.GroupTag, p.URL, p.Key)
			}
			return tw.Flush()
		},
	}
}

func newProviderIDCmd(a *app, use, short string, run func(context.Context, *client.Client, int64) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <provider-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := run(cmd.Context(), a.client(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
}

// providerFlags are the form fields settable from the command line.
type providerFlags struct {
	name, url, key, website, providerType, group, proxyURL string
	enabled                                                bool
	weight, priority, failureThreshold                     int
	costMultiplier                                         float64
	yes                                                    bool
}

func (pf *providerFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&pf.name, "name", "", "display name")
	fs.StringVar(&pf.url, "url", "", "upstream base URL")
	fs.StringVar(&pf.key, "key", "", "API key, left unchanged on edit when empty")
	fs.StringVar(&pf.website, "website", "", "provider website URL")
	fs.StringVar(&pf.providerType, "type", "claude", "provider type")
	fs.BoolVar(&pf.enabled, "enabled", true, "route traffic to the provider")
	fs.IntVar(&pf.weight, "weight", 1, "weight within its priority level")
	fs.IntVar(&pf.priority, "priority", 0, "priority level, lower is tried first")
	fs.Float64Var(&pf.costMultiplier, "cost-multiplier", 1, "cost multiplier")
	fs.StringVar(&pf.group, "group", "", "group tag")
	fs.StringVar(&pf.proxyURL, "proxy", "", "outbound proxy URL")
	fs.IntVar(&pf.failureThreshold, "failure-threshold", providerform.DefaultFailureThreshold, "circuit breaker failure threshold, 0 disables it")
	fs.BoolVar(&pf.yes, "yes", false, "confirm circuit breaker settings that need a second look")
}

// actions returns a form action for every flag the user set. On create every
// flag applies so that defaults match the flag defaults.
func (pf *providerFlags) actions(fs *pflag.FlagSet, all bool) []providerform.Action {
	set := func(name string) bool { return all || fs.Changed(name) }
	var out []providerform.Action
	if set("name") {
		out = append(out, providerform.SetName{Value: pf.name})
	}
	if set("url") {
		out = append(out, providerform.SetURL{Value: pf.url})
	}
	if set("key") {
		out = append(out, providerform.SetKey{Value: pf.key})
	}
	if set("website") {
		out = append(out, providerform.SetWebsiteURL{Value: pf.website})
	}
	if set("type") {
		out = append(out, providerform.SetProviderType{Value: pf.providerType})
	}
	if set("enabled") {
		out = append(out, providerform.SetEnabled{Value: pf.enabled})
	}
	if set("weight") {
		out = append(out, providerform.SetWeight{Value: pf.weight})
	}
	if set("priority") {
		out = append(out, providerform.SetPriority{Value: pf.priority})
	}
	if set("cost-multiplier") {
		out = append(out, providerform.SetCostMultiplier{Value: pf.costMultiplier})
	}
	if set("group") {
		out = append(out, providerform.SetGroupTag{Value: pf.group})
	}
	if set("proxy") {
		out = append(out, providerform.SetProxyURL{Value: pf.proxyURL})
	}
	if set("failure-threshold") {
		out = append(out, providerform.SetFailureThreshold{Value: pf.failureThreshold})
	}
	return out
}

func newProviderFormCmd(a *app, edit bool) *cobra.Command {
	pf := &providerFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a provider",
		Args:  cobra.NoArgs,
	}
	if edit {
		cmd.Use = "edit <provider-id>"
		cmd.Short = "Change the flags given on an existing provider"
		cmd.Args = cobra.ExactArgs(1)
	}
	pf.register(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := a.client()

		var form *providerform.Form
		if edit {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := findProvider(ctx, c, id)
			if err != nil {
				return err
			}
			form = providerform.NewEditForm(c, *p)
		} else {
			form = providerform.NewForm(c)
		}
		for _, act := range pf.actions(cmd.Flags(), !edit) {
			form.Dispatch(act)
		}

		status := form.TabStatus()
		for _, tab := range providerform.Tabs {
			if status[tab] == providerform.TabStatusWarning {
				fmt.Fprintf(a.stderr, "warning: check the %s settings\n", tab)
			}
		}

		res, err := form.Submit(ctx)
		if err != nil {
			return err
		}
		if res == providerform.SubmitNeedsConfirmation {
			if !pf.yes {
				form.CancelConfirm()
				th := form.State().CircuitBreaker.FailureThreshold
				return fmt.Errorf("failure threshold %d needs confirmation, rerun with --yes", th)
			}
			if _, err := form.Confirm(ctx); err != nil {
				return err
			}
		}

		st := form.State()
		fmt.Fprintf(a.stdout, "Saved provider %d (%s)\n", st.ProviderID, st.Basic.Name)
		return nil
	}
	return cmd
}

func findProvider(ctx context.Context, c *client.Client, id int64) (*models.Provider, error) {
	ps, err := c.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ps {
		if ps[i].ID == id {
			return &ps[i], nil
		}
	}
	return nil, fmt.Errorf("provider %d not found", id)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id " + strconv.Quote(raw))
	}
	return id, nil
}

func typeLabel(p models.Provider) string {
	if p.TypeLabel != "" {
		return p.TypeLabel
	}
	return p.ProviderType
}
