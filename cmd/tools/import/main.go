// import loads notices from a JSON file (an array of opportunities),
// classifies each, and stores the results. Useful for backfilling
// notices obtained outside the SAM.gov API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/david/contract-finder/internal/classify"
	"github.com/david/contract-finder/internal/config"
	"github.com/david/contract-finder/internal/db"
	"github.com/david/contract-finder/internal/models"
)

func main() {
	path := flag.String("file", "", "path to a JSON file with an array of opportunities")
	flag.Parse()

	if *path == "" {
		log.Fatal("Please provide an input file using -file flag")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *path, err)
	}
	var opps []models.Opportunity
	if err := json.Unmarshal(raw, &opps); err != nil {
		log.Fatalf("Failed to parse %s: %v", *path, err)
	}

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

	kw, err := classify.LoadKeywords()
	if err != nil {
		log.Fatalf("Keyword table unusable: %v", err)
	}
	// Rule-based only: backfills should not depend on a model being up.
	coordinator := classify.NewCoordinator(classify.NewRuleEvaluator(kw), cfg.ProviderTimeout)

	store := db.NewStore(pool)
	saved, skipped := 0, 0
	for _, opp := range opps {
		if opp.NoticeID == "" {
			skipped++
			continue
		}
		cls := coordinator.Classify(ctx, opp)
		if err := store.SaveOpportunity(ctx, opp, &cls, nil); err != nil {
			log.Printf("Save failed for %s: %v", opp.NoticeID, err)
			continue
		}
		saved++
	}

	log.Printf("Import finished. Saved: %d, Skipped: %d, Total: %d", saved, skipped, len(opps))
}
