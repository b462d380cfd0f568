package main

import (
	"context"
	"log"

	"github.com/david/contract-finder/internal/api"
	"github.com/david/contract-finder/internal/config"
	"github.com/david/contract-finder/internal/db"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	srv, err := api.NewServer(pool, cfg)
	if err != nil {
		log.Fatalf("Server configuration error: %v", err)
	}

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
