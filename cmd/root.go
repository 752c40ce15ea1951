// Package cmd defines the aka-exporter command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/aka-exporter/internal/app"
	"github.com/JakeFAU/aka-exporter/internal/config"
	"github.com/JakeFAU/aka-exporter/internal/logging"
)

// ErrMissingOutputPath is returned when no positional output path was given.
var ErrMissingOutputPath = errors.New("the first parameter must be the output path")

// App is what the command needs from the service container.
// Tests substitute a fake through newApp.
type App interface {
	Export(ctx context.Context, outputPath string, out io.Writer) (app.Result, error)
	Logger() *zap.Logger
	Close()
}

// Factories are variables so tests can replace them.
var (
	loadConfig = config.Load
	newLogger  = func(cfg config.Config) (*zap.Logger, error) {
		return logging.New(cfg.Logging.Development)
	}
	newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		instance App
	)
	cmd := &cobra.Command{
		Use:   "aka-exporter [--config file] <output-path>",
		Short: "Export the AKA link table with live HTTP status checks.",
		Long: `aka-exporter reads every non-archived short link from the link table,
checks each destination URL concurrently, and writes the results as
<output-path>.csv and <output-path>.md next to each other. The last line
on stdout is EXPORT_SUMMARY=<counts> for automation to capture.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return ErrMissingOutputPath
			case len(args) > 1:
				return fmt.Errorf("expected a single output path, got %d arguments", len(args))
			}
			return nil
		},

		// Runs after argument validation and before RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			instance, err = newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			defer instance.Close()
			if _, err := instance.Export(cmd.Context(), args[0], cmd.OutOrStdout()); err != nil {
				return err
			}
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if instance != nil {
				_ = instance.Logger().Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json or toml)")
	return cmd
}

// Execute runs the root command and returns the process exit code.
// SIGINT and SIGTERM cancel in-flight probes; records already read are still reported.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "aka-exporter: %v\n", err)
		return 1
	}
	return 0
}
