package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Headless storefront session engine",
	Long: `Storefront runs the dynamic behavior layer of a commerce theme as a
typed server: variant and cart synchronization, panels and popups,
collection filtering, predictive search, alerts, and recently-viewed
tracking, all speaking to the shop's rendering endpoints and exposed
over an HTTP/WebSocket API.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		// A .env alongside the config can override STOREFRONT_* settings.
		_ = godotenv.Load()
	})
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".storefront.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the process logger from the configured level; --verbose
// forces debug.
func newLogger(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		level = "debug"
	}
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return log.Sugar(), nil
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
