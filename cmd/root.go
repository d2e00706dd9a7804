// Package cmd defines the dailynews CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/app"
	"github.com/JakeFAU/dailynews-crawler/internal/config"
	"github.com/JakeFAU/dailynews-crawler/internal/logging"
)

type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. Tests replace it to inject stores.
var newApp = func(ctx context.Context, cfgPath string) (*app.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "dailynews",
		Short: "Archives the daily Xinwen Lianbo transcript as markdown.",
		Long: `dailynews fetches one day's Xinwen Lianbo transcript from the CCTV site,
assembles the summary and every article into a markdown document, and stores
it keyed by broadcast date.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(
		newCrawlCmd(),
		newBatchCmd(),
		newScheduleCmd(),
		newShowCmd(),
		newStatsCmd(),
		newListCmd(),
		newSearchCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute runs the root command with SIGINT/SIGTERM canceling its context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger, _ := logging.New(false, "")
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Error("command execution failed", zap.Error(err))
		os.Exit(1)
	}
}
