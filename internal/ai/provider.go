// Package ai contains the model-provider clients that classify
// opportunities, plus the shared prompt and response validation.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/david/contract-finder/internal/models"
)

// ErrorKind distinguishes provider failure modes so the fallback
// coordinator can log them usefully. Every kind falls through to the
// next evaluator; none is retried against the same provider.
type ErrorKind string

const (
	ErrUnauthorized      ErrorKind = "unauthorized"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrTimeout           ErrorKind = "timeout"
	ErrUnavailable       ErrorKind = "unavailable"
	ErrMalformedResponse ErrorKind = "malformed_response"
)

// ProviderError wraps a provider failure with its kind and source.
type ProviderError struct {
	Provider models.Provenance
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf extracts the error kind from a provider error chain, or ""
// for non-provider errors.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Classifier is one AI provider able to classify an opportunity.
// Implementations issue a single request per call: the caller owns
// timeout (via ctx) and retry policy.
type Classifier interface {
	Name() models.Provenance
	Classify(ctx context.Context, opp models.Opportunity) (*models.Classification, error)
}

// classificationPrompt asks the model for a strict-JSON judgment on
// one notice. The enum lists are spelled out so responses can be
// validated verbatim.
func classificationPrompt(opp models.Opportunity) string {
	domains := make([]string, 0, len(models.Domains()))
	for _, d := range models.Domains() {
		domains = append(domains, string(d))
	}

	return fmt.Sprintf(`You are an expert analyst of US federal IT contracting notices. Classify the following opportunity.

TITLE: %s
AGENCY: %s
NAICS: %s
DESCRIPTION: %s

Choose values ONLY from these exact lists:
PRIMARY DOMAIN (pick one): %s
COMPLEXITY (pick one): Low, Medium, High
PROJECT TYPE (pick one): Modernization, Operations, Greenfield, Legacy

Return a JSON object with this format:
{
  "primary_domain": "Cloud",
  "secondary_domains": ["Data"],
  "complexity": "Medium",
  "project_type": "Modernization",
  "is_legacy": false,
  "strategic_value": 65
}

Rules:
1. secondary_domains lists at most 3 additional domains that clearly apply, never the primary.
2. strategic_value is 0-100: how strategically valuable winning this work would be for a small IT services firm.
3. RESPOND ONLY WITH JSON.`,
		opp.Title, opp.Agency, strings.Join(opp.NAICS, ", "),
		truncateForPrompt(opp.Description, 6000), strings.Join(domains, ", "))
}

type classificationResponse struct {
	PrimaryDomain    string   `json:"primary_domain"`
	SecondaryDomains []string `json:"secondary_domains"`
	Complexity       string   `json:"complexity"`
	ProjectType      string   `json:"project_type"`
	IsLegacy         bool     `json:"is_legacy"`
	StrategicValue   float64  `json:"strategic_value"`
}

// parseClassification validates a raw model response against the enum
// sets. Anything that does not resolve to a valid classification comes
// back as a malformed-response error; values are never coerced to a
// default.
func parseClassification(raw string, provider models.Provenance) (*models.Classification, error) {
	raw = stripCodeFences(raw)

	var resp classificationResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &ProviderError{Provider: provider, Kind: ErrMalformedResponse,
			Err: fmt.Errorf("parse classification json: %w", err)}
	}

	primary, ok := models.ParseDomain(resp.PrimaryDomain)
	if !ok {
		return nil, &ProviderError{Provider: provider, Kind: ErrMalformedResponse,
			Err: fmt.Errorf("unknown primary domain %q", resp.PrimaryDomain)}
	}

	complexity := models.Complexity(strings.TrimSpace(resp.Complexity))
	if !complexity.Valid() {
		return nil, &ProviderError{Provider: provider, Kind: ErrMalformedResponse,
			Err: fmt.Errorf("unknown complexity %q", resp.Complexity)}
	}

	projectType := models.ProjectType(strings.TrimSpace(resp.ProjectType))
	if !projectType.Valid() {
		return nil, &ProviderError{Provider: provider, Kind: ErrMalformedResponse,
			Err: fmt.Errorf("unknown project type %q", resp.ProjectType)}
	}

	var secondary []models.Domain
	for _, s := range resp.SecondaryDomains {
		d, ok := models.ParseDomain(s)
		if !ok || d == primary {
			continue
		}
		if !containsDomain(secondary, d) {
			secondary = append(secondary, d)
		}
		if len(secondary) == 3 {
			break
		}
	}

	strategic := resp.StrategicValue
	if strategic < 0 {
		strategic = 0
	}
	if strategic > 100 {
		strategic = 100
	}

	return &models.Classification{
		PrimaryDomain:    primary,
		SecondaryDomains: secondary,
		Complexity:       complexity,
		ProjectType:      projectType,
		IsLegacy:         resp.IsLegacy,
		Provenance:       provider,
		StrategicValue:   &strategic,
	}, nil
}

// stripCodeFences removes a markdown ```json fence some models wrap
// around otherwise-valid JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func containsDomain(list []models.Domain, d models.Domain) bool {
	for _, v := range list {
		if v == d {
			return true
		}
	}
	return false
}

// statusError maps an HTTP status to the provider error taxonomy.
func statusError(provider models.Provenance, status int) *ProviderError {
	kind := ErrUnavailable
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrUnauthorized
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	}
	return &ProviderError{Provider: provider, Kind: kind,
		Err: fmt.Errorf("unexpected status: %d", status)}
}

// transportError maps a transport-level failure: a deadline that
// expired is a timeout, anything else means the provider is
// unreachable.
func transportError(ctx context.Context, provider models.Provenance, err error) *ProviderError {
	kind := ErrUnavailable
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

func truncateForPrompt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
