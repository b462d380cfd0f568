package classify

import (
	"sort"
	"strings"

	"github.com/david/contract-finder/internal/models"
)

const maxSecondaryDomains = 3

// RuleEvaluator is the deterministic keyword classifier. It performs
// no I/O and never fails, which makes it the terminal fallback when no
// AI provider can produce a classification.
type RuleEvaluator struct {
	kw *Keywords
}

func NewRuleEvaluator(kw *Keywords) *RuleEvaluator {
	return &RuleEvaluator{kw: kw}
}

type domainHits struct {
	domain   models.Domain
	priority int
	hits     int
}

// Classify scores every domain by keyword hits against title and
// description. The highest hit count wins; ties break on the fixed
// priority order from the keyword table. Domains with at least one hit
// that are not primary become secondary, capped at three.
func (e *RuleEvaluator) Classify(opp models.Opportunity) models.Classification {
	text := strings.ToLower(opp.Title + " " + opp.Description)

	scored := make([]domainHits, 0, len(e.kw.Domains))
	for _, d := range e.kw.Domains {
		hits := 0
		for _, kw := range d.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				hits++
			}
		}
		scored = append(scored, domainHits{domain: d.Domain, priority: d.Priority, hits: hits})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].hits != scored[j].hits {
			return scored[i].hits > scored[j].hits
		}
		return scored[i].priority < scored[j].priority
	})

	primary := models.DomainOther
	if scored[0].hits > 0 {
		primary = scored[0].domain
	}

	var secondary []models.Domain
	for _, s := range scored[1:] {
		if s.hits == 0 || s.domain == primary {
			continue
		}
		secondary = append(secondary, s.domain)
		if len(secondary) == maxSecondaryDomains {
			break
		}
	}

	projectType, isLegacy := e.projectType(text)

	return models.Classification{
		PrimaryDomain:    primary,
		SecondaryDomains: secondary,
		Complexity:       e.complexity(opp.Description, text),
		ProjectType:      projectType,
		IsLegacy:         isLegacy,
		Provenance:       models.ProvenanceRules,
	}
}

func (e *RuleEvaluator) complexity(description, text string) models.Complexity {
	words := len(strings.Fields(description))
	c := e.kw.Complexity

	if words > c.LongDescriptionWords || containsAny(text, c.ComplexTerms) {
		return models.ComplexityHigh
	}
	if words < c.ShortDescriptionWords && !containsAny(text, c.SimpleTerms) {
		return models.ComplexityLow
	}
	return models.ComplexityMedium
}

func (e *RuleEvaluator) projectType(text string) (models.ProjectType, bool) {
	p := e.kw.ProjectType
	hasLegacy := containsAny(text, p.LegacyTerms)

	switch {
	case containsAny(text, p.ModernizationTerms):
		return models.ProjectModernization, true
	case containsAny(text, p.GreenfieldTerms) && !hasLegacy:
		return models.ProjectGreenfield, false
	case containsAny(text, p.OperationsTerms):
		return models.ProjectOperations, false
	case hasLegacy:
		return models.ProjectLegacy, true
	default:
		return models.ProjectOperations, false
	}
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
