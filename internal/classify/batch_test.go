package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/david/contract-finder/internal/models"
	"github.com/david/contract-finder/internal/scoring"
)

func testRunner(t *testing.T) *BatchRunner {
	t.Helper()
	c := NewCoordinator(testEvaluator(t), time.Second)
	return NewBatchRunner(c, scoring.DefaultEngine(), 2)
}

func testProfile() models.CapabilityProfile {
	return models.CapabilityProfile{
		CompanyName:     "Acme Federal",
		CoreDomains:     []string{"Cloud"},
		TechnicalSkills: []string{"aws", "terraform"},
		NAICS:           []string{"541511"},
		RolePreference:  models.RoleEither,
	}
}

func TestBatchOrderAndErrorIsolation(t *testing.T) {
	r := testRunner(t)

	opps := []models.Opportunity{
		{NoticeID: "A-1", Description: "cloud migration to aws"},
		{Description: "missing identifier"},
		{NoticeID: "A-3", Description: "help desk support"},
	}

	results := r.Evaluate(context.Background(), opps, testProfile())

	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}
	if results[0].Opportunity.NoticeID != "A-1" || results[2].Opportunity.NoticeID != "A-3" {
		t.Fatalf("output order does not match input order: %v, %v",
			results[0].Opportunity.NoticeID, results[2].Opportunity.NoticeID)
	}
	if !errors.Is(results[1].Err, ErrInvalidOpportunity) {
		t.Fatalf("item 2 error = %v, want InvalidOpportunity", results[1].Err)
	}
	for _, i := range []int{0, 2} {
		if results[i].Err != nil {
			t.Fatalf("item %d unexpected error: %v", i+1, results[i].Err)
		}
		if results[i].Classification == nil || results[i].Score == nil {
			t.Fatalf("item %d missing classification or score", i+1)
		}
	}
}

func TestBatchDuplicateNoticeID(t *testing.T) {
	r := testRunner(t)

	opps := []models.Opportunity{
		{NoticeID: "B-1", Description: "cloud support"},
		{NoticeID: "B-1", Description: "the same notice again"},
	}

	results := r.Evaluate(context.Background(), opps, testProfile())

	if results[0].Err != nil {
		t.Fatalf("first occurrence should evaluate, got %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, ErrInvalidOpportunity) {
		t.Fatalf("duplicate error = %v, want InvalidOpportunity", results[1].Err)
	}
}

func TestBatchCancellation(t *testing.T) {
	r := testRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.Evaluate(ctx, []models.Opportunity{
		{NoticeID: "C-1", Description: "cloud"},
		{NoticeID: "C-2", Description: "data"},
	}, testProfile())

	for i, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("item %d error = %v, want context.Canceled", i+1, res.Err)
		}
	}
}

func TestBatchDeterministic(t *testing.T) {
	r := testRunner(t)

	opps := []models.Opportunity{
		{NoticeID: "D-1", Title: "Cloud Migration", Description: "cloud migration to aws using terraform", NAICS: []string{"541511", "541512"}},
	}

	first := r.Evaluate(context.Background(), opps, testProfile())
	second := r.Evaluate(context.Background(), opps, testProfile())

	if first[0].Score.Total != second[0].Score.Total {
		t.Fatalf("totals differ across runs: %v vs %v", first[0].Score.Total, second[0].Score.Total)
	}
	if first[0].Score.Recommendation != second[0].Score.Recommendation {
		t.Fatalf("recommendations differ across runs")
	}
}
