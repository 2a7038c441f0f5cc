package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/LouYuanbo1/mvfscraper/internal/config"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mvfscraper/internal/infra/metrics"
	"github.com/LouYuanbo1/mvfscraper/internal/service/schedule"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper"
	"github.com/LouYuanbo1/mvfscraper/internal/service/scraper/param"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// exitConfig is the process status when configuration is missing or invalid.
const exitConfig = 2

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func execute(ctx context.Context) int {
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "mvfscraper",
		Short:         "mvfscraper publishes the latest minvandforsyning.dk water meter reading to MQTT.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initSlog(flags.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "optional JSON config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "optional dotenv file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides log-level setting)")

	run := newRunCmd(flags)
	root.RunE = run.RunE
	root.AddCommand(run, newOnceCmd(flags), newParseCmd())
	return root
}

func loadApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath, flags.envFile)
	if err != nil {
		return nil, &exitError{code: exitConfig, err: fmt.Errorf("configuration: %w", err)}
	}
	if !cmd.Flags().Changed("log-level") {
		if err := initSlog(cfg.LogLevel); err != nil {
			return nil, &exitError{code: exitConfig, err: err}
		}
	}
	a, err := buildApp(cfg)
	if err != nil {
		return nil, &exitError{code: exitConfig, err: err}
	}
	return a, nil
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape and publish forever at the configured interval.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return schedule.Run(ctx, a.service, a.cfg.Interval.Std())
			})
			if a.cfg.MetricsAddr != "" {
				g.Go(metricsTask(ctx, a.cfg.MetricsAddr, a.registry))
			}
			return g.Wait()
		},
	}
}

// metricsTask serves /metrics and /healthz. A listener failure is logged and
// swallowed so it never cancels the scheduler sharing the errgroup.
func metricsTask(ctx context.Context, addr string, gatherer prometheus.Gatherer) func() error {
	return func() error {
		if err := metrics.Serve(ctx, addr, metrics.NewRouter(gatherer)); err != nil {
			slog.Error("metrics listener stopped, scraping continues", "addr", addr, "err", err)
		}
		return nil
	}
}

func newOnceCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single scrape attempt and exit non-zero if it failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, flags)
			if err != nil {
				return err
			}
			res := a.service.Attempt(context.WithoutCancel(cmd.Context()))
			if !res.OK() {
				return fmt.Errorf("attempt failed (%s): %w", res.Kind, res.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(res.Payload))
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "parse <file.html>",
		Short: "Extract a reading from a saved portal page and print the payload.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			session, err := chrome.OpenDocument(f)
			if err != nil {
				return err
			}
			defer session.Close()

			reading, err := scraper.ExtractReading(cmd.Context(), session, param.Scrape{ElementTimeout: timeout}.WithDefaults())
			if err != nil {
				return err
			}
			payload, err := reading.Payload()
			if err != nil {
				return err
			}
			slog.Debug("parsed saved page", "file", args[0], "meter_id", reading.MeterID)
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 100*time.Millisecond, "how long to wait for the reading element")
	return cmd
}
