// Package classify holds the classification pipeline: keyword tables,
// the deterministic rule evaluator, the provider fallback coordinator,
// and the batch runner.
package classify

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/david/contract-finder/internal/models"
)

//go:embed domains.yaml
var keywordsFS embed.FS

// DomainKeywords is one domain's keyword set with its tie-break
// priority (lower wins).
type DomainKeywords struct {
	Domain   models.Domain `yaml:"domain"`
	Priority int           `yaml:"priority"`
	Keywords []string      `yaml:"keywords"`
}

// ComplexityTerms drives the Low/Medium/High decision.
type ComplexityTerms struct {
	LongDescriptionWords  int      `yaml:"long_description_words"`
	ShortDescriptionWords int      `yaml:"short_description_words"`
	ComplexTerms          []string `yaml:"complex_terms"`
	SimpleTerms           []string `yaml:"simple_terms"`
}

// ProjectTypeTerms drives the project-type decision.
type ProjectTypeTerms struct {
	ModernizationTerms []string `yaml:"modernization_terms"`
	GreenfieldTerms    []string `yaml:"greenfield_terms"`
	OperationsTerms    []string `yaml:"operations_terms"`
	LegacyTerms        []string `yaml:"legacy_terms"`
}

// Keywords is the full rule table, loaded once at startup.
type Keywords struct {
	Domains     []DomainKeywords `yaml:"domains"`
	Complexity  ComplexityTerms  `yaml:"complexity"`
	ProjectType ProjectTypeTerms `yaml:"project_type"`
}

// LoadKeywords parses the embedded rule table. An empty or invalid
// table is a configuration error: without it not even rule-based
// classification is possible, so callers should treat a failure here
// as fatal.
func LoadKeywords() (*Keywords, error) {
	raw, err := keywordsFS.ReadFile("domains.yaml")
	if err != nil {
		return nil, fmt.Errorf("read keyword table: %w", err)
	}

	var kw Keywords
	if err := yaml.Unmarshal(raw, &kw); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}

	if len(kw.Domains) == 0 {
		return nil, fmt.Errorf("keyword table has no domains")
	}
	for _, d := range kw.Domains {
		if !d.Domain.Valid() {
			return nil, fmt.Errorf("keyword table references unknown domain %q", d.Domain)
		}
		if len(d.Keywords) == 0 {
			return nil, fmt.Errorf("domain %q has no keywords", d.Domain)
		}
	}
	if kw.Complexity.LongDescriptionWords <= 0 {
		kw.Complexity.LongDescriptionWords = 1000
	}
	if kw.Complexity.ShortDescriptionWords <= 0 {
		kw.Complexity.ShortDescriptionWords = 200
	}

	return &kw, nil
}
