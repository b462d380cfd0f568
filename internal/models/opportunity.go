package models

import (
	"strings"
	"time"
)

// Domain is the technology domain a contract opportunity falls under.
type Domain string

const (
	DomainAI            Domain = "AI"
	DomainData          Domain = "Data"
	DomainCloud         Domain = "Cloud"
	DomainCybersecurity Domain = "Cybersecurity"
	DomainITOperations  Domain = "IT Operations"
	DomainSoftware      Domain = "Software Engineering"
	DomainModernization Domain = "Modernization"
	DomainOther         Domain = "Other"
)

// Domains lists every valid domain value.
func Domains() []Domain {
	return []Domain{
		DomainAI, DomainData, DomainCloud, DomainCybersecurity,
		DomainITOperations, DomainSoftware, DomainModernization, DomainOther,
	}
}

func (d Domain) Valid() bool {
	for _, v := range Domains() {
		if d == v {
			return true
		}
	}
	return false
}

// domainAliases maps common label variants (model outputs, profile
// free-text) onto canonical domain values.
var domainAliases = map[string]Domain{
	"ai":                      DomainAI,
	"ai/ml":                   DomainAI,
	"artificial intelligence": DomainAI,
	"machine learning":        DomainAI,
	"ml":                      DomainAI,
	"data":                    DomainData,
	"data analytics":          DomainData,
	"data engineering":        DomainData,
	"analytics":               DomainData,
	"cloud":                   DomainCloud,
	"cloud computing":         DomainCloud,
	"cloud migration":         DomainCloud,
	"cyber":                   DomainCybersecurity,
	"cybersecurity":           DomainCybersecurity,
	"security":                DomainCybersecurity,
	"it operations":           DomainITOperations,
	"it ops":                  DomainITOperations,
	"operations":              DomainITOperations,
	"software":                DomainSoftware,
	"software engineering":    DomainSoftware,
	"software development":    DomainSoftware,
	"modernization":           DomainModernization,
	"legacy modernization":    DomainModernization,
	"other":                   DomainOther,
}

// ParseDomain resolves a free-form label to a canonical domain. It
// accepts the canonical strings plus a small alias table.
func ParseDomain(s string) (Domain, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if d := Domain(s); d.Valid() {
		return d, true
	}
	if d, ok := domainAliases[strings.ToLower(s)]; ok {
		return d, true
	}
	return "", false
}

// Complexity is a rough effort tier for an opportunity.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

func (c Complexity) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}

// ProjectType describes the nature of the work being procured.
type ProjectType string

const (
	ProjectModernization ProjectType = "Modernization"
	ProjectOperations    ProjectType = "Operations"
	ProjectGreenfield    ProjectType = "Greenfield"
	ProjectLegacy        ProjectType = "Legacy"
)

func (p ProjectType) Valid() bool {
	switch p {
	case ProjectModernization, ProjectOperations, ProjectGreenfield, ProjectLegacy:
		return true
	}
	return false
}

// Provenance records which stage of the classification pipeline
// produced a result.
type Provenance string

const (
	ProvenanceOpenAI Provenance = "openai"
	ProvenanceOllama Provenance = "ollama"
	ProvenanceRules  Provenance = "rules"
)

// Opportunity is a government contracting notice as returned by the
// SAM.gov opportunities API (or a manual/mock source).
type Opportunity struct {
	NoticeID           string     `json:"notice_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Agency             string     `json:"agency"`
	SubAgency          string     `json:"sub_agency,omitempty"`
	NAICS              []string   `json:"naics,omitempty"`
	PSC                string     `json:"psc,omitempty"`
	SetAside           string     `json:"set_aside,omitempty"`
	ContractType       string     `json:"contract_type,omitempty"`
	ResponseType       string     `json:"response_type,omitempty"`
	PostedDate         *time.Time `json:"posted_date,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	PlaceOfPerformance string     `json:"place_of_performance,omitempty"`
	URL                string     `json:"url,omitempty"`
}

// Classification is the domain/complexity judgment for one opportunity.
// StrategicValue is set only when an AI provider produced the result.
type Classification struct {
	PrimaryDomain    Domain      `json:"primary_domain"`
	SecondaryDomains []Domain    `json:"secondary_domains,omitempty"`
	Complexity       Complexity  `json:"complexity"`
	ProjectType      ProjectType `json:"project_type"`
	IsLegacy         bool        `json:"is_legacy"`
	Provenance       Provenance  `json:"provenance"`
	StrategicValue   *float64    `json:"strategic_value,omitempty"`
}

// AIAssessed reports whether the classification came from a model
// rather than the keyword rules.
func (c Classification) AIAssessed() bool {
	return c.Provenance == ProvenanceOpenAI || c.Provenance == ProvenanceOllama
}
