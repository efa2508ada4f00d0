package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/db"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/recent"
)

var warmConcurrency int

var warmCmd = &cobra.Command{
	Use:   "warm [path ...]",
	Short: "Prefetch storefront sections and prune stale local state",
	Long: `Fetches the configured sections for the given paths (defaults to the shop
root) so the platform's section cache is hot before traffic arrives, and
trims the recently-viewed store to its capacity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		paths := args
		if len(paths) == 0 {
			paths = []string{cfg.Routes.Root}
		}

		type fetch struct {
			path    string
			section string
		}
		var fetches []fetch
		for _, p := range paths {
			fetches = append(fetches, fetch{p, cfg.Cart.DrawerSection})
			if cfg.Cart.PageSection != "" {
				fetches = append(fetches, fetch{p, cfg.Cart.PageSection})
			}
		}

		client := platform.New(cfg.ShopURL, cfg.Routes, cfg.Timeouts.Platform)
		bar := progressbar.Default(int64(len(fetches)), "warming sections")

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(warmConcurrency)
		for _, f := range fetches {
			f := f
			g.Go(func() error {
				if _, err := client.Section(ctx, f.path, f.section); err != nil {
					return fmt.Errorf("warming %s (%s): %w", f.path, f.section, err)
				}
				_ = bar.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		_ = bar.Finish()

		database, err := db.Open(cfg.Recent.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		dropped, err := recent.NewStore(database, cfg.Recent.Limit).Prune(context.Background())
		if err != nil {
			return fmt.Errorf("pruning recently viewed: %w", err)
		}
		if dropped > 0 {
			fmt.Printf("pruned %d recently-viewed entries\n", dropped)
		}
		return nil
	},
}

func init() {
	warmCmd.Flags().IntVar(&warmConcurrency, "concurrency", 4, "parallel section fetches")
	rootCmd.AddCommand(warmCmd)
}
