// evaluate fetches notices from SAM.gov (or the mock set), runs the
// classification and scoring pipeline against a capability profile,
// and prints a ranked table. It needs no database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/contract-finder/internal/ai"
	"github.com/david/contract-finder/internal/classify"
	"github.com/david/contract-finder/internal/config"
	"github.com/david/contract-finder/internal/ingest"
	"github.com/david/contract-finder/internal/models"
	"github.com/david/contract-finder/internal/scoring"
)

func main() {
	profilePath := flag.String("profile", "profile.json", "path to a capability profile JSON file")
	days := flag.Int("days", 30, "posted-date look-back window in days")
	limit := flag.Int("limit", 50, "max notices to fetch")
	keyword := flag.String("q", "", "optional keyword query")
	flag.Parse()

	profile, err := loadProfile(*profilePath)
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}

	cfg := config.Load()
	ctx := context.Background()

	var primary ai.Classifier
	if cfg.OpenAIAPIKey != "" {
		primary = ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	ollama := ai.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, "")

	kw, err := classify.LoadKeywords()
	if err != nil {
		log.Fatalf("Keyword table unusable: %v", err)
	}
	engine, err := scoring.NewEngine(scoring.DefaultWeights(), cfg.StrategicBaseline)
	if err != nil {
		log.Fatalf("Scoring engine: %v", err)
	}

	coordinator := classify.NewCoordinator(classify.NewRuleEvaluator(kw), cfg.ProviderTimeout, primary, ollama)
	runner := classify.NewBatchRunner(coordinator, engine, cfg.ScoringWorkers)

	params := ingest.SearchParams{PostedDays: *days, Limit: *limit, ActiveOnly: true}
	if *keyword != "" {
		params.Keywords = []string{*keyword}
	}

	sam := ingest.NewSAMClient(cfg.SAMAPIKey, cfg.SAMBaseURL)
	opps, err := sam.FetchOpportunities(ctx, params)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	results := runner.Evaluate(ctx, opps, *profile)
	sort.SliceStable(results, func(i, j int) bool {
		ti, tj := -1.0, -1.0
		if results[i].Score != nil {
			ti = results[i].Score.Total
		}
		if results[j].Score != nil {
			tj = results[j].Score.Total
		}
		return ti > tj
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Notice", "Title", "Domain", "Complexity", "Fit", "Action"})

	for _, res := range results {
		if res.Err != nil {
			t.AppendRow(table.Row{res.Opportunity.NoticeID, truncate(res.Opportunity.Title, 40), "-", "-", "-", res.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{
			res.Opportunity.NoticeID,
			truncate(res.Opportunity.Title, 40),
			res.Classification.PrimaryDomain,
			res.Classification.Complexity,
			fmt.Sprintf("%.1f", res.Score.Total),
			res.Score.Recommendation,
		})
	}
	t.Render()

	for _, res := range results {
		if res.Err == nil && len(res.Score.RiskFactors) > 0 {
			log.Printf("%s risks: %v", res.Opportunity.NoticeID, res.Score.RiskFactors)
		}
	}
}

func loadProfile(path string) (*models.CapabilityProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var profile models.CapabilityProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validator.New().Struct(profile); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &profile, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
