package models

// RecommendedAction is the pursue/pass call for a scored opportunity.
type RecommendedAction string

const (
	ActionBid     RecommendedAction = "BID"
	ActionTeamSub RecommendedAction = "TEAM_SUB"
	ActionIgnore  RecommendedAction = "IGNORE"
)

// Score breakdown criterion names, used as keys in the explanation map
// and as column names when persisting.
const (
	CriterionDomain       = "domain_match"
	CriterionNAICS        = "naics_match"
	CriterionSkill        = "skill_match"
	CriterionAgency       = "agency_match"
	CriterionContractType = "contract_type_fit"
	CriterionStrategic    = "strategic_value"
)

// FitScoreBreakdown holds the six criterion sub-scores, each in [0,100].
type FitScoreBreakdown struct {
	DomainMatch     float64 `json:"domain_match"`
	NAICSMatch      float64 `json:"naics_match"`
	SkillMatch      float64 `json:"skill_match"`
	AgencyMatch     float64 `json:"agency_match"`
	ContractTypeFit float64 `json:"contract_type_fit"`
	StrategicValue  float64 `json:"strategic_value"`
}

// FitScore is the full scoring result for one opportunity against one
// capability profile.
type FitScore struct {
	Breakdown      FitScoreBreakdown `json:"breakdown"`
	Total          float64           `json:"total"`
	Recommendation RecommendedAction `json:"recommendation"`
	Explanations   map[string]string `json:"explanations,omitempty"`
	RiskFactors    []string          `json:"risk_factors,omitempty"`
}
