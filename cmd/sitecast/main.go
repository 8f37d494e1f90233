package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/21mScot/sitecast/internal/analysis"
	"github.com/21mScot/sitecast/internal/api"
	"github.com/21mScot/sitecast/internal/catalogue"
	"github.com/21mScot/sitecast/internal/config"
	"github.com/21mScot/sitecast/internal/livedata"
	"github.com/21mScot/sitecast/internal/network"
	"github.com/21mScot/sitecast/internal/storage"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	log.Println("SiteCast starting...")

	// Load config (use defaults if file doesn't exist)
	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults", *configPath)
			cfg = config.DefaultConfig()
			// Save default config so it persists
			if saveErr := cfg.Save(*configPath); saveErr != nil {
				log.Printf("Warning: could not save default config: %v", saveErr)
			}
		} else {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Determine database path and ensure parent directory exists
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "sitecast.db"
	}
	dbDir := filepath.Dir(dbPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	log.Printf("Database initialized at %s", dbPath)

	// Seed built-in catalogues on first start
	for _, variant := range []catalogue.Variant{catalogue.VariantDev, catalogue.VariantProd} {
		miners, err := catalogue.Builtin(variant)
		if err != nil {
			log.Fatalf("Failed to load built-in catalogue %s: %v", variant, err)
		}
		if err := store.SeedCatalogue(variant, miners); err != nil {
			log.Fatalf("Failed to seed catalogue %s: %v", variant, err)
		}
	}
	log.Printf("Catalogues ready (active variant: %s)", cfg.CatalogueVariant)

	// Initialize live data service with static fallback from config
	staticSnap := network.Snapshot{
		Difficulty:      cfg.LiveData.Static.Difficulty,
		BlockSubsidyBTC: cfg.LiveData.Static.BlockSubsidyBTC,
		BTCPriceUSD:     cfg.LiveData.Static.BTCPriceUSD,
		USDToGBP:        cfg.LiveData.Static.USDToGBP,
	}
	live := livedata.NewService(cfg.LiveData.Enabled, cfg.LiveData.TTL, staticSnap)

	// Initialize analysis engine
	engine := analysis.New(cfg.Halvings, cfg.Scenarios)

	// Initialize HTTP server
	server := api.NewServer(cfg, *configPath, store, live, engine)

	// Push fresh snapshots to connected dashboards
	live.StartRefresher(cfg.LiveData.RefreshInterval, func(snap network.Snapshot) {
		server.GetHub().Broadcast(api.Message{Type: "network", Data: snap})
	})

	// Purge old saved runs daily
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			deleted, err := store.PurgeOldRuns(90)
			if err != nil {
				log.Printf("Run purge error: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("Purged %d runs older than 90 days", deleted)
			}
			if err := store.Vacuum(); err != nil {
				log.Printf("Vacuum error: %v", err)
			}
		}
	}()

	go func() {
		log.Printf("HTTP server starting on http://%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.Start(); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	log.Println("SiteCast is running. Press Ctrl+C to stop.")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("SiteCast shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("SiteCast stopped")
}
