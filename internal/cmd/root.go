// Package cmd implements the dispatchctl commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/popeskul/insdr-dispatch/internal/app"
	"github.com/popeskul/insdr-dispatch/internal/config"
)

const connectTimeout = 30 * time.Second

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Operate the insdr-dispatch SMS service from the command line",
	Long: `dispatchctl sends SMS batches from CSV files, prepares password hashes
for the auth.users configuration and inspects the provider message cache.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level to stderr")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// withApp loads the configuration, connects every dependency and runs fn.
func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	a, err := app.New(connectCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
