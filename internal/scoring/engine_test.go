package scoring

import (
	"reflect"
	"testing"

	"github.com/david/contract-finder/internal/models"
)

func cloudProfile() models.CapabilityProfile {
	return models.CapabilityProfile{
		CompanyName:       "Acme Federal",
		CoreDomains:       []string{"Cloud"},
		TechnicalSkills:   []string{"aws", "terraform"},
		NAICS:             []string{"541511"},
		PreferredAgencies: []string{"Department of Defense"},
		Certifications:    []string{"SDVOSB"},
		RolePreference:    models.RoleEither,
	}
}

func rulesClassification(primary models.Domain) models.Classification {
	return models.Classification{
		PrimaryDomain: primary,
		Complexity:    models.ComplexityMedium,
		ProjectType:   models.ProjectOperations,
		Provenance:    models.ProvenanceRules,
	}
}

func TestScoreWeightedAggregate(t *testing.T) {
	e := DefaultEngine()

	opp := models.Opportunity{
		NoticeID:    "N-1",
		Description: "cloud migration using aws services",
		Agency:      "Department of Defense",
		NAICS:       []string{"541511", "541512"},
		SetAside:    "SDVOSB",
	}

	score := e.Score(opp, rulesClassification(models.DomainCloud), cloudProfile())
	b := score.Breakdown

	// domain 100, naics 50, skill 50 (aws yes, terraform no),
	// agency 100, contract 100, strategic 70 baseline.
	if b.DomainMatch != 100 || b.NAICSMatch != 50 || b.SkillMatch != 50 ||
		b.AgencyMatch != 100 || b.ContractTypeFit != 100 || b.StrategicValue != 70 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}

	want := 0.30*100 + 0.20*50 + 0.20*50 + 0.10*100 + 0.10*100 + 0.10*70
	if score.Total != 77.0 {
		t.Fatalf("total = %v, want %v", score.Total, want)
	}
	if score.Recommendation != models.ActionBid {
		t.Fatalf("recommendation = %s, want BID", score.Recommendation)
	}
}

func TestRecommendBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		want  models.RecommendedAction
	}{
		{70.0, models.ActionBid},
		{69.9, models.ActionTeamSub},
		{50.0, models.ActionTeamSub},
		{49.9, models.ActionIgnore},
	}
	for _, tc := range cases {
		if got := Recommend(tc.total); got != tc.want {
			t.Fatalf("Recommend(%v) = %s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestNAICSIntersectionRatio(t *testing.T) {
	e := DefaultEngine()

	opp := models.Opportunity{NoticeID: "N-2", NAICS: []string{"541511", "541512"}}
	score := e.Score(opp, rulesClassification(models.DomainOther), cloudProfile())

	if score.Breakdown.NAICSMatch != 50.0 {
		t.Fatalf("naics_match = %v, want 50.0", score.Breakdown.NAICSMatch)
	}

	// No codes on the notice: ratio divides by 1, not zero.
	empty := e.Score(models.Opportunity{NoticeID: "N-3"}, rulesClassification(models.DomainOther), cloudProfile())
	if empty.Breakdown.NAICSMatch != 0 {
		t.Fatalf("naics_match with no codes = %v, want 0", empty.Breakdown.NAICSMatch)
	}
}

func TestDomainMatchTiers(t *testing.T) {
	e := DefaultEngine()
	profile := cloudProfile()

	primary := e.Score(models.Opportunity{NoticeID: "N-4"}, rulesClassification(models.DomainCloud), profile)
	if primary.Breakdown.DomainMatch != 100 {
		t.Fatalf("primary-domain match = %v, want 100", primary.Breakdown.DomainMatch)
	}

	cls := rulesClassification(models.DomainData)
	cls.SecondaryDomains = []models.Domain{models.DomainCloud}
	secondary := e.Score(models.Opportunity{NoticeID: "N-5"}, cls, profile)
	if secondary.Breakdown.DomainMatch != 60 {
		t.Fatalf("secondary-domain match = %v, want 60", secondary.Breakdown.DomainMatch)
	}

	miss := e.Score(models.Opportunity{NoticeID: "N-6"}, rulesClassification(models.DomainOther), profile)
	if miss.Breakdown.DomainMatch != 0 {
		t.Fatalf("no-overlap match = %v, want 0", miss.Breakdown.DomainMatch)
	}
}

func TestSkillMatchWholeWord(t *testing.T) {
	e := DefaultEngine()
	profile := models.CapabilityProfile{
		CompanyName:     "Acme",
		CoreDomains:     []string{"Software Engineering"},
		TechnicalSkills: []string{"java"},
	}

	js := e.Score(models.Opportunity{NoticeID: "N-7", Description: "javascript development"},
		rulesClassification(models.DomainSoftware), profile)
	if js.Breakdown.SkillMatch != 0 {
		t.Fatalf("java should not match javascript, got %v", js.Breakdown.SkillMatch)
	}

	java := e.Score(models.Opportunity{NoticeID: "N-8", Description: "java development services"},
		rulesClassification(models.DomainSoftware), profile)
	if java.Breakdown.SkillMatch != 100 {
		t.Fatalf("skill_match = %v, want 100", java.Breakdown.SkillMatch)
	}
}

func TestContractTypeFitTiers(t *testing.T) {
	e := DefaultEngine()
	profile := cloudProfile()

	setAside := e.Score(models.Opportunity{NoticeID: "N-9", SetAside: "Service-Disabled Veteran-Owned Small Business (SDVOSB)"},
		rulesClassification(models.DomainCloud), profile)
	if setAside.Breakdown.ContractTypeFit != 100 {
		t.Fatalf("matching set-aside fit = %v, want 100", setAside.Breakdown.ContractTypeFit)
	}

	open := e.Score(models.Opportunity{NoticeID: "N-10"}, rulesClassification(models.DomainCloud), profile)
	if open.Breakdown.ContractTypeFit != 60 {
		t.Fatalf("open competition fit = %v, want 60", open.Breakdown.ContractTypeFit)
	}

	mismatch := e.Score(models.Opportunity{NoticeID: "N-11", SetAside: "8(a)"},
		rulesClassification(models.DomainCloud), profile)
	if mismatch.Breakdown.ContractTypeFit != 30 {
		t.Fatalf("uncovered set-aside fit = %v, want 30", mismatch.Breakdown.ContractTypeFit)
	}

	subOnly := cloudProfile()
	subOnly.RolePreference = models.RoleSubcontractor
	sub := e.Score(models.Opportunity{NoticeID: "N-12"}, rulesClassification(models.DomainCloud), subOnly)
	if sub.Breakdown.ContractTypeFit != 30 {
		t.Fatalf("sub-only open fit = %v, want 30", sub.Breakdown.ContractTypeFit)
	}
}

func TestStrategicValueProvenance(t *testing.T) {
	e := DefaultEngine()

	rules := e.Score(models.Opportunity{NoticeID: "N-13"}, rulesClassification(models.DomainCloud), cloudProfile())
	if rules.Breakdown.StrategicValue != 70 {
		t.Fatalf("rule-based strategic = %v, want baseline 70", rules.Breakdown.StrategicValue)
	}
	if !hasRisk(rules.RiskFactors, "strategic value not AI-assessed") {
		t.Fatalf("missing baseline risk factor, got %v", rules.RiskFactors)
	}

	v := 90.0
	cls := rulesClassification(models.DomainCloud)
	cls.Provenance = models.ProvenanceOpenAI
	cls.StrategicValue = &v
	aiScore := e.Score(models.Opportunity{NoticeID: "N-14"}, cls, cloudProfile())
	if aiScore.Breakdown.StrategicValue != 90 {
		t.Fatalf("AI strategic = %v, want 90", aiScore.Breakdown.StrategicValue)
	}
	if hasRisk(aiScore.RiskFactors, "strategic value not AI-assessed") {
		t.Fatalf("AI-assessed score should not carry the baseline risk factor")
	}
}

func TestScoreIdempotent(t *testing.T) {
	e := DefaultEngine()
	opp := models.Opportunity{
		NoticeID:    "N-15",
		Description: "cloud migration using aws",
		NAICS:       []string{"541511"},
		Agency:      "Department of Defense",
	}
	cls := rulesClassification(models.DomainCloud)

	first := e.Score(opp, cls, cloudProfile())
	second := e.Score(opp, cls, cloudProfile())

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Score is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestWeightSetValidate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}

	bad := DefaultWeights()
	bad.Domain = 0.50
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}

	neg := WeightSet{Domain: 1.2, NAICS: -0.2}
	if err := neg.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}

	if _, err := NewEngine(bad, 70); err == nil {
		t.Fatal("NewEngine accepted invalid weights")
	}
	if _, err := NewEngine(DefaultWeights(), 120); err == nil {
		t.Fatal("NewEngine accepted out-of-range baseline")
	}
}

func hasRisk(risks []string, want string) bool {
	for _, r := range risks {
		if r == want {
			return true
		}
	}
	return false
}
