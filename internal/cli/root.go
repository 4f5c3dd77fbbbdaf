// Package cli implements logwatch, a terminal client for the console admin API.
package cli

import (
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/nexus-console/internal/client"
	"github.com/pysugar/nexus-console/internal/config"
	"github.com/pysugar/nexus-console/internal/version"
	"github.com/spf13/cobra"
)

type app struct {
	server   string
	token    string
	timeout  time.Duration
	interval time.Duration
	color    bool
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) client() *client.Client {
	return client.New(a.server, a.token, a.timeout)
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdout, os.Stderr, isTerminal(os.Stdout))
}

// NewRootCommandWithIO writes to out and errOut without terminal highlighting.
func NewRootCommandWithIO(out, errOut io.Writer) *cobra.Command {
	return newRootCommand(out, errOut, false)
}

func newRootCommand(out, errOut io.Writer, color bool) *cobra.Command {
	a := &app{color: color, stdout: out, stderr: errOut}

	server, token, interval := "http://127.0.0.1:8080", "", config.DefaultPollInterval
	if cfg, err := config.Load(); err == nil {
		host := cfg.Host
		if host == "0.0.0.0" || host == "" {
			host = "127.0.0.1"
		}
		server = "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port))
		token = cfg.AdminToken
		interval = cfg.PollInterval
	}
	if v := strings.TrimSpace(os.Getenv("NEXUS_CONSOLE_URL")); v != "" {
		server = v
	}

	cmd := &cobra.Command{
		Use:           "logwatch",
		Short:         "Watch and manage an LLM gateway through the nexus console",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version + " (" + version.Commit + ", " + version.BuildTime + ")",
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.server, "server", server, "console base URL (env NEXUS_CONSOLE_URL)")
	cmd.PersistentFlags().StringVar(&a.token, "token", token, "admin bearer token (env NEXUS_CONSOLE_ADMIN_TOKEN)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "per-request timeout")
	cmd.PersistentFlags().DurationVar(&a.interval, "interval", interval, "refresh interval for watch")

	cmd.AddCommand(
		newWatchCmd(a),
		newTraceCmd(a),
		newStatsCmd(a),
		newSessionCmd(a),
		newProvidersCmd(a),
		newFiltersCmd(a),
	)
	return cmd
}
