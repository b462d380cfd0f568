// scores prints a company's saved fit scores, best first.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/contract-finder/internal/config"
	"github.com/david/contract-finder/internal/db"
)

func main() {
	company := flag.String("company", "", "company name whose scores to list")
	action := flag.String("action", "", "filter by recommendation (BID, TEAM_SUB, IGNORE)")
	limit := flag.Int("limit", 20, "max rows")
	flag.Parse()

	if *company == "" {
		log.Fatal("Please provide a company name using -company flag")
	}

	cfg := config.Load()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	scores, err := store.ListScores(ctx, *company, *action, *limit)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Notice", "Title", "Agency", "Fit", "Action", "Risks"})

	for _, s := range scores {
		t.AppendRow(table.Row{s.NoticeID, s.Title, s.Agency, s.Total, s.Recommendation, len(s.RiskFactors)})
	}
	t.Render()
}
