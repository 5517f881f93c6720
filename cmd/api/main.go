package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gitsecureops/access-reconciler/internal/api"
	"github.com/gitsecureops/access-reconciler/internal/audit"
	"github.com/gitsecureops/access-reconciler/internal/config"
	"github.com/gitsecureops/access-reconciler/internal/githubapi"
	"github.com/gitsecureops/access-reconciler/internal/notify"
	"github.com/gitsecureops/access-reconciler/internal/storage"
	"github.com/gitsecureops/access-reconciler/internal/storage/postgres"
	"github.com/gitsecureops/access-reconciler/internal/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer store.Close()

	// Initialize GitHub service and audit recorder
	gh := githubapi.NewService(cfg.GitHubToken)
	notifier := notify.NewWebhookNotifier(cfg.WebhookURL)
	recorder := audit.NewRecorder(store, notifier)

	// Initialize handler
	handler := api.NewHandler(gh, recorder)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Storage type: %s\n", cfg.StorageType)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
