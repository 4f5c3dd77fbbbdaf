package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pysugar/nexus-console/internal/config"
	"github.com/pysugar/nexus-console/internal/console"
	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "nexus-console",
		Short:         "Admin console API for an LLM gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the admin API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		newTokenCmd(),
	)
	return root
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	// ============================================
	// Admin token
	// ============================================

	if cfg.AdminToken == "" {
		if _, err := db.EnsureAdminToken(database); err != nil {
			return fmt.Errorf("admin token: %w", err)
		}
		log.Printf("[Console] Using the admin token stored in %s (show it with `nexus-console token`)", cfg.DBPath)
	}

	srv := console.NewServer(database, cfg.AdminToken)
	if n, err := srv.Filters.Refresh(); err != nil {
		log.Printf("[Console] Failed to load request filters: %v", err)
	} else {
		log.Printf("[Console] Loaded %d request filters", n)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Console] Shutdown failed: %v", err)
		}
	}()

	if cfg.Source != "" {
		log.Printf("[Console] Config loaded from %s", cfg.Source)
	}
	log.Printf("[Console] nexus-console %s starting on http://%s", version.Version, cfg.Addr())
	log.Printf("[Console] Admin API: http://%s/api", cfg.Addr())
	log.Printf("[Console] Metrics: http://%s/metrics", cfg.Addr())

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Printf("[Console] Stopped")
	return nil
}

func newTokenCmd() *cobra.Command {
	var regenerate bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the admin token stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := db.InitDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			var token string
			if regenerate {
				token, err = db.RegenerateAdminToken(database)
			} else {
				token, err = db.EnsureAdminToken(database)
			}
			if err != nil {
				return err
			}
			if cfg.AdminToken != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: a configured admin token overrides the stored one")
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "replace the stored token")
	return cmd
}
