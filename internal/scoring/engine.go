package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/david/contract-finder/internal/models"
)

// DefaultStrategicBaseline is the strategic-value score assumed when
// no AI judgment is available. Rule-based results carry a risk-factor
// note so callers can tell the baseline apart from a real assessment.
const DefaultStrategicBaseline = 70

// Engine scores opportunities against a capability profile. It is
// pure: the same inputs always produce the same FitScore, and nothing
// is mutated.
type Engine struct {
	weights           WeightSet
	strategicBaseline float64
}

// NewEngine builds an engine with the given weights and rule-based
// strategic baseline. Invalid weights are rejected up front.
func NewEngine(weights WeightSet, strategicBaseline float64) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weight set: %w", err)
	}
	if strategicBaseline < 0 || strategicBaseline > 100 {
		return nil, fmt.Errorf("strategic baseline %.1f outside [0,100]", strategicBaseline)
	}
	return &Engine{weights: weights, strategicBaseline: strategicBaseline}, nil
}

// DefaultEngine returns an engine with the standard weights.
func DefaultEngine() *Engine {
	e, err := NewEngine(DefaultWeights(), DefaultStrategicBaseline)
	if err != nil {
		panic(err) // defaults are statically valid
	}
	return e
}

// Score computes the six-criterion breakdown, the weighted aggregate
// rounded to one decimal, and the recommendation. The five
// non-strategic criteria use the same deterministic formulas no
// matter which evaluator produced the classification; strategic value
// comes from the AI judgment when present, else the baseline.
func (e *Engine) Score(opp models.Opportunity, cls models.Classification, profile models.CapabilityProfile) models.FitScore {
	explain := make(map[string]string, 6)
	var risks []string

	domain := e.domainMatch(cls, profile, explain)
	naics := e.naicsMatch(opp, profile, explain)
	skill := e.skillMatch(opp, profile, explain)
	agency := e.agencyMatch(opp, profile, explain)
	contract := e.contractTypeFit(opp, profile, explain)
	strategic := e.strategicValue(cls, explain, &risks)

	if cls.Complexity == models.ComplexityHigh && domain == 0 {
		risks = append(risks, "high complexity outside core domains")
	}

	b := models.FitScoreBreakdown{
		DomainMatch:     domain,
		NAICSMatch:      naics,
		SkillMatch:      skill,
		AgencyMatch:     agency,
		ContractTypeFit: contract,
		StrategicValue:  strategic,
	}

	total := round1(e.weights.Domain*domain +
		e.weights.NAICS*naics +
		e.weights.Skill*skill +
		e.weights.Agency*agency +
		e.weights.ContractType*contract +
		e.weights.Strategic*strategic)

	return models.FitScore{
		Breakdown:      b,
		Total:          total,
		Recommendation: Recommend(total),
		Explanations:   explain,
		RiskFactors:    risks,
	}
}

// Recommend maps an aggregate score to the pursue/pass call. The 70
// and 50 boundaries belong to the higher band.
func Recommend(total float64) models.RecommendedAction {
	switch {
	case total >= 70:
		return models.ActionBid
	case total >= 50:
		return models.ActionTeamSub
	default:
		return models.ActionIgnore
	}
}

func (e *Engine) domainMatch(cls models.Classification, profile models.CapabilityProfile, explain map[string]string) float64 {
	core := profileDomains(profile)

	if _, ok := core[cls.PrimaryDomain]; ok {
		explain[models.CriterionDomain] = fmt.Sprintf("primary domain %s is a core domain", cls.PrimaryDomain)
		return 100
	}
	for _, d := range cls.SecondaryDomains {
		if _, ok := core[d]; ok {
			explain[models.CriterionDomain] = fmt.Sprintf("secondary domain %s is a core domain", d)
			return 60
		}
	}
	explain[models.CriterionDomain] = fmt.Sprintf("no overlap between %s and core domains", cls.PrimaryDomain)
	return 0
}

func (e *Engine) naicsMatch(opp models.Opportunity, profile models.CapabilityProfile, explain map[string]string) float64 {
	shared := 0
	for _, code := range opp.NAICS {
		for _, pc := range profile.NAICS {
			if strings.TrimSpace(code) == strings.TrimSpace(pc) {
				shared++
				break
			}
		}
	}
	score := 100 * float64(shared) / float64(max(1, len(opp.NAICS)))
	explain[models.CriterionNAICS] = fmt.Sprintf("%d of %d notice NAICS codes in profile", shared, len(opp.NAICS))
	return score
}

func (e *Engine) skillMatch(opp models.Opportunity, profile models.CapabilityProfile, explain map[string]string) float64 {
	matched := 0
	for _, skill := range profile.TechnicalSkills {
		if containsWholeWord(opp.Description, skill) {
			matched++
		}
	}
	score := math.Min(100, 100*float64(matched)/float64(max(1, len(profile.TechnicalSkills))))
	explain[models.CriterionSkill] = fmt.Sprintf("%d of %d profile skills mentioned", matched, len(profile.TechnicalSkills))
	return score
}

func (e *Engine) agencyMatch(opp models.Opportunity, profile models.CapabilityProfile, explain map[string]string) float64 {
	for _, a := range profile.PreferredAgencies {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(opp.Agency)) {
			explain[models.CriterionAgency] = fmt.Sprintf("%s is a preferred agency", opp.Agency)
			return 100
		}
	}
	explain[models.CriterionAgency] = "agency not in preferred list"
	return 0
}

func (e *Engine) contractTypeFit(opp models.Opportunity, profile models.CapabilityProfile, explain map[string]string) float64 {
	setAside := strings.TrimSpace(opp.SetAside)

	if setAside != "" {
		for _, cert := range profile.Certifications {
			if foldContains(setAside, cert) || foldContains(cert, setAside) {
				explain[models.CriterionContractType] = fmt.Sprintf("set-aside %q matches certification %q", setAside, cert)
				return 100
			}
		}
		explain[models.CriterionContractType] = fmt.Sprintf("set-aside %q not covered by certifications", setAside)
		return 30
	}

	if profile.WantsPrime() {
		explain[models.CriterionContractType] = "open competition, prime-eligible"
		return 60
	}
	explain[models.CriterionContractType] = "open competition, subcontractor-only profile"
	return 30
}

func (e *Engine) strategicValue(cls models.Classification, explain map[string]string, risks *[]string) float64 {
	if cls.AIAssessed() && cls.StrategicValue != nil {
		v := math.Max(0, math.Min(100, *cls.StrategicValue))
		explain[models.CriterionStrategic] = fmt.Sprintf("AI-assessed strategic value (%s)", cls.Provenance)
		return v
	}
	explain[models.CriterionStrategic] = fmt.Sprintf("baseline %.0f, no AI judgment available", e.strategicBaseline)
	*risks = append(*risks, "strategic value not AI-assessed")
	return e.strategicBaseline
}

// profileDomains resolves the profile's free-text core domains to
// canonical values. Unrecognized labels are ignored.
func profileDomains(profile models.CapabilityProfile) map[models.Domain]struct{} {
	set := make(map[models.Domain]struct{}, len(profile.CoreDomains))
	for _, s := range profile.CoreDomains {
		if d, ok := models.ParseDomain(s); ok {
			set[d] = struct{}{}
		}
	}
	return set
}

// containsWholeWord reports whether word occurs in text bounded by
// non-word characters or string edges, case-insensitively. Multi-word
// skills match as phrases with the same boundary rule at both ends.
func containsWholeWord(text, word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}
	text = strings.ToLower(text)

	for from := 0; ; {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)

		leftOK := start == 0 || !isWordChar(text[start-1])
		rightOK := end == len(text) || !isWordChar(text[end])
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

func foldContains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
