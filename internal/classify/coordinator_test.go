package classify

import (
	"context"
	"testing"
	"time"

	"github.com/david/contract-finder/internal/ai"
	"github.com/david/contract-finder/internal/models"
)

type stubProvider struct {
	name  models.Provenance
	cls   *models.Classification
	err   error
	calls int
}

func (s *stubProvider) Name() models.Provenance { return s.name }

func (s *stubProvider) Classify(ctx context.Context, opp models.Opportunity) (*models.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.cls, nil
}

func aiClassification(p models.Provenance) *models.Classification {
	v := 80.0
	return &models.Classification{
		PrimaryDomain:  models.DomainCloud,
		Complexity:     models.ComplexityMedium,
		ProjectType:    models.ProjectOperations,
		Provenance:     p,
		StrategicValue: &v,
	}
}

func rateLimited(p models.Provenance) error {
	return &ai.ProviderError{Provider: p, Kind: ai.ErrRateLimited}
}

func TestCoordinatorPrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: models.ProvenanceOpenAI, cls: aiClassification(models.ProvenanceOpenAI)}
	secondary := &stubProvider{name: models.ProvenanceOllama, cls: aiClassification(models.ProvenanceOllama)}
	c := NewCoordinator(testEvaluator(t), time.Second, primary, secondary)

	cls := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-1"})

	if cls.Provenance != models.ProvenanceOpenAI {
		t.Fatalf("provenance = %s, want openai", cls.Provenance)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.calls)
	}
}

func TestCoordinatorFallsBackToSecondary(t *testing.T) {
	primary := &stubProvider{name: models.ProvenanceOpenAI, err: rateLimited(models.ProvenanceOpenAI)}
	secondary := &stubProvider{name: models.ProvenanceOllama, cls: aiClassification(models.ProvenanceOllama)}
	c := NewCoordinator(testEvaluator(t), time.Second, primary, secondary)

	cls := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-2"})

	if cls.Provenance != models.ProvenanceOllama {
		t.Fatalf("provenance = %s, want ollama", cls.Provenance)
	}
	if primary.calls != 1 {
		t.Fatalf("primary called %d times, want exactly 1 (no internal retry)", primary.calls)
	}
}

func TestCoordinatorFallsBackToRules(t *testing.T) {
	// Primary always rate-limited, secondary unconfigured: every result
	// must be rule-based.
	primary := &stubProvider{name: models.ProvenanceOpenAI, err: rateLimited(models.ProvenanceOpenAI)}
	c := NewCoordinator(testEvaluator(t), time.Second, primary, nil)

	for i := 0; i < 3; i++ {
		cls := c.Classify(context.Background(), models.Opportunity{
			NoticeID:    "N-3",
			Description: "cloud migration to aws",
		})
		if cls.Provenance != models.ProvenanceRules {
			t.Fatalf("provenance = %s, want rules", cls.Provenance)
		}
		if cls.PrimaryDomain != models.DomainCloud {
			t.Fatalf("primary = %s, want Cloud", cls.PrimaryDomain)
		}
	}
	if primary.calls != 3 {
		t.Fatalf("primary called %d times, want 3", primary.calls)
	}
}

func TestCoordinatorNoProviders(t *testing.T) {
	c := NewCoordinator(testEvaluator(t), time.Second)

	cls := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-4"})
	if cls.Provenance != models.ProvenanceRules {
		t.Fatalf("provenance = %s, want rules", cls.Provenance)
	}
}

func TestCoordinatorMalformedFallsThrough(t *testing.T) {
	primary := &stubProvider{
		name: models.ProvenanceOpenAI,
		err:  &ai.ProviderError{Provider: models.ProvenanceOpenAI, Kind: ai.ErrMalformedResponse},
	}
	secondary := &stubProvider{name: models.ProvenanceOllama, cls: aiClassification(models.ProvenanceOllama)}
	c := NewCoordinator(testEvaluator(t), time.Second, primary, secondary)

	cls := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-5"})
	if cls.Provenance != models.ProvenanceOllama {
		t.Fatalf("provenance = %s, want ollama", cls.Provenance)
	}
}
