package main

import (
	"context"
	"fmt"
	"log"

	"github.com/david/contract-finder/internal/config"
	"github.com/david/contract-finder/internal/db"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	var total, classified, embedded int
	err = pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(primary_domain),
			count(embedding)
		FROM opportunities
	`).Scan(&total, &classified, &embedded)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	var scores, profiles int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM scores").Scan(&scores); err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM profiles").Scan(&profiles); err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	fmt.Printf("Total opportunities: %d\n", total)
	fmt.Printf("With classification: %d\n", classified)
	fmt.Printf("With embedding: %d\n", embedded)
	fmt.Printf("Scores: %d\n", scores)
	fmt.Printf("Profiles: %d\n", profiles)
}
