package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"PersonIntel/internal/app"
	"PersonIntel/internal/cache"
	"PersonIntel/internal/config"
	"PersonIntel/internal/logging"
	"PersonIntel/internal/report"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func (o *rootOptions) load() config.Config {
	cfg := config.Load(o.configPath)
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "personintel",
		Short:         "Gather and assess public information about a person",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default $PERSONINTEL_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(newSearchCmd(opts), newServeCmd(opts), newCacheCmd(opts))
	return root
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "search NAME",
		Short: "Run one intelligence search and write the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			name := strings.Join(strings.Fields(strings.Join(args, " ")), " ")
			if name == "" {
				return fmt.Errorf("name must not be blank")
			}

			cfg := opts.load()
			logger := logging.NewWithFormat(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			intel := application.Search(cmd.Context(), name)

			out := cmd.OutOrStdout()
			if output == "" {
				return report.Render(out, intel, reportFormat)
			}
			if err := report.WriteFile(output, intel, reportFormat); err != nil {
				return err
			}
			fmt.Fprintf(out, "Risk Level: %s\n", strings.ToUpper(string(intel.RiskLevel)))
			fmt.Fprintf(out, "Confidence Score: %.2f\n", intel.ConfidenceScore)
			fmt.Fprintf(out, "Sources Checked: %d\n", len(intel.SourcesChecked))
			fmt.Fprintf(out, "Sources Successful: %d\n", len(intel.SourcesSuccessful))
			if len(intel.Errors) > 0 {
				fmt.Fprintf(out, "Degraded: %d issue(s), see report\n", len(intel.Errors))
			}
			fmt.Fprintf(out, "Report written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatJSON), "report format: json or markdown")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the asynchronous search API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg := opts.load()
			logger := logging.NewWithFormat(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Serve(ctx)
		},
	}
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print cache statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd.Context(), opts, cmd, func(ctx context.Context, c *cache.Store) error {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c.Stats(ctx))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCache(cmd.Context(), opts, cmd, func(ctx context.Context, c *cache.Store) error {
				removed := c.EvictExpired(ctx)
				if err := c.Compact(); err != nil {
					return fmt.Errorf("compact cache: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
				return nil
			})
		},
	})
	return cmd
}

func withCache(ctx context.Context, opts *rootOptions, cmd *cobra.Command, fn func(context.Context, *cache.Store) error) error {
	cfg := opts.load()
	logger := logging.NewWithFormat(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	store, err := app.OpenCache(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
