package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/david/contract-finder/internal/models"
	"github.com/david/contract-finder/internal/scoring"
)

// ErrInvalidOpportunity marks a notice that cannot be evaluated
// (missing or duplicate id). It is reported per-item; the rest of the
// batch proceeds.
var ErrInvalidOpportunity = errors.New("invalid opportunity")

// Result is one evaluated opportunity. Exactly one of
// Classification/Score (both set) or Err is populated. Results come
// back in input order.
type Result struct {
	Opportunity    models.Opportunity     `json:"opportunity"`
	Classification *models.Classification `json:"classification,omitempty"`
	Score          *models.FitScore       `json:"score,omitempty"`
	Err            error                  `json:"-"`
}

// BatchRunner evaluates batches of opportunities with bounded
// concurrency. Items are independent: no state is shared between
// in-flight evaluations, and one item's failure never aborts the rest.
type BatchRunner struct {
	coordinator *Coordinator
	engine      *scoring.Engine
	workers     int
}

func NewBatchRunner(coordinator *Coordinator, engine *scoring.Engine, workers int) *BatchRunner {
	if workers <= 0 {
		workers = 4
	}
	return &BatchRunner{coordinator: coordinator, engine: engine, workers: workers}
}

// Evaluate classifies then scores every opportunity against the
// profile. Output order matches input order. Invalid items (empty or
// duplicate notice id) get a per-item error; cancelling ctx stops
// in-flight provider calls and marks unfinished items with the
// context error.
func (r *BatchRunner) Evaluate(ctx context.Context, opps []models.Opportunity, profile models.CapabilityProfile) []Result {
	results := make([]Result, len(opps))

	seen := make(map[string]int, len(opps))
	skip := make([]bool, len(opps))
	for i, opp := range opps {
		results[i].Opportunity = opp

		id := strings.TrimSpace(opp.NoticeID)
		if id == "" {
			results[i].Err = fmt.Errorf("%w: missing notice id", ErrInvalidOpportunity)
			skip[i] = true
			continue
		}
		if first, dup := seen[id]; dup {
			results[i].Err = fmt.Errorf("%w: notice id %s duplicates item %d", ErrInvalidOpportunity, id, first)
			skip[i] = true
			continue
		}
		seen[id] = i
	}

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i := range opps {
		if skip[i] {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			cls := r.coordinator.Classify(ctx, opps[i])
			score := r.engine.Score(opps[i], cls, profile)

			results[i].Classification = &cls
			results[i].Score = &score
			return nil
		})
	}
	g.Wait()

	return results
}
