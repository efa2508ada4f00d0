package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencubicles/healthkart-dubai/internal/alerts"
	"github.com/opencubicles/healthkart-dubai/internal/assets"
	"github.com/opencubicles/healthkart-dubai/internal/cart"
	"github.com/opencubicles/healthkart-dubai/internal/collection"
	"github.com/opencubicles/healthkart-dubai/internal/config"
	"github.com/opencubicles/healthkart-dubai/internal/db"
	"github.com/opencubicles/healthkart-dubai/internal/events"
	"github.com/opencubicles/healthkart-dubai/internal/flags"
	"github.com/opencubicles/healthkart-dubai/internal/panels"
	"github.com/opencubicles/healthkart-dubai/internal/platform"
	"github.com/opencubicles/healthkart-dubai/internal/recent"
	"github.com/opencubicles/healthkart-dubai/internal/search"
	"github.com/opencubicles/healthkart-dubai/internal/server"
	"github.com/opencubicles/healthkart-dubai/internal/variant"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront engine API server",
	Long:  `Starts the HTTP/WebSocket server hosting the cart, variant, panel, filter, search, and alert workflows for connected pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		database, err := db.Open(cfg.Recent.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		client := platform.New(cfg.ShopURL, cfg.Routes, cfg.Timeouts.Platform)
		hub := events.NewHub(log)
		alertCenter := alerts.NewCenter(hub, cfg.Timeouts.AlertExpiry)
		loader := assets.NewLoader(nil, log)

		panelManager := panels.NewManager(hub, loader, cfg.Timeouts.PanelFocus, log)
		panelManager.Register(panels.Panel{ID: cfg.Cart.DrawerSection})

		cartManager := cart.NewManager(client, alertCenter, panelManager, hub, cfg.Cart, log)
		recentStore := recent.NewStore(database, cfg.Recent.Limit)
		flagStore := flags.NewStore(database)
		liveSearch := search.NewLive(client, hub, cfg.Search, log)
		caps := cfg.Capabilities()
		variants := variant.NewRegistry(variant.NewOrchestrator(client, hub, caps, log), caps)
		collections := collection.NewRegistry(func(path, template string) *collection.Manager {
			return collection.NewManager(client, hub, flagStore, path, template, log)
		})

		srv := server.New(server.Config{Port: cfg.Port, AllowAll: cfg.CORSAllowAll}, log)
		r := srv.Router()
		cart.RegisterRoutes(r, cartManager)
		variant.RegisterRoutes(r, variants)
		panels.RegisterRoutes(r, panelManager)
		alerts.RegisterRoutes(r, alertCenter)
		recent.RegisterRoutes(r, recentStore)
		collection.RegisterRoutes(r, collections)
		search.RegisterRoutes(r, liveSearch)
		flags.RegisterRoutes(r, flagStore)
		r.Get("/ws", events.ServeWS(hub, log))

		// Arm the page-load catalogue once so subscribers attached over the
		// socket see the same initial fan-out a fresh page does.
		hub.DispatchAll(events.Catalogue...)

		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
