package classify

import (
	"context"
	"log"
	"time"

	"github.com/david/contract-finder/internal/ai"
	"github.com/david/contract-finder/internal/models"
)

// Coordinator produces exactly one classification per opportunity by
// walking a fixed evaluator order: each configured AI provider once,
// then the rule evaluator. A provider gets a single bounded-timeout
// call; any failure falls through to the next evaluator, never back
// to the same one. The rule evaluator cannot fail, so Classify always
// returns a result.
type Coordinator struct {
	providers []ai.Classifier
	rules     *RuleEvaluator
	timeout   time.Duration
}

// NewCoordinator builds a coordinator over the given providers in
// fallback order. Nil providers (unconfigured slots) are skipped.
func NewCoordinator(rules *RuleEvaluator, timeout time.Duration, providers ...ai.Classifier) *Coordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	active := make([]ai.Classifier, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			active = append(active, p)
		}
	}
	return &Coordinator{providers: active, rules: rules, timeout: timeout}
}

// Classify runs the fallback chain for one opportunity. Provider
// errors are logged with the notice id and provenance, then recovered
// by falling through; they are never surfaced to the caller.
func (c *Coordinator) Classify(ctx context.Context, opp models.Opportunity) models.Classification {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		cls, err := p.Classify(callCtx, opp)
		cancel()

		if err == nil {
			return *cls
		}
		log.Printf("classification via %s failed for notice %s (%s): %v",
			p.Name(), opp.NoticeID, ai.KindOf(err), err)
	}

	return c.rules.Classify(opp)
}
