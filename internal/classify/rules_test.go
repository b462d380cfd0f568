package classify

import (
	"strings"
	"testing"

	"github.com/david/contract-finder/internal/models"
)

func testEvaluator(t *testing.T) *RuleEvaluator {
	t.Helper()
	kw, err := LoadKeywords()
	if err != nil {
		t.Fatalf("LoadKeywords: %v", err)
	}
	return NewRuleEvaluator(kw)
}

func TestClassifyCloudMigration(t *testing.T) {
	e := testEvaluator(t)

	cls := e.Classify(models.Opportunity{
		NoticeID:    "N-1",
		Title:       "Cloud Migration Support",
		Description: "The agency requires cloud migration of existing workloads to a FedRAMP authorized environment hosted on aws.",
	})

	if cls.PrimaryDomain != models.DomainCloud {
		t.Fatalf("primary = %s, want Cloud", cls.PrimaryDomain)
	}
	if cls.Provenance != models.ProvenanceRules {
		t.Fatalf("provenance = %s, want rules", cls.Provenance)
	}
	if cls.StrategicValue != nil {
		t.Fatalf("rule-based classification must not carry a strategic value")
	}
}

func TestClassifyTieBreakPriority(t *testing.T) {
	e := testEvaluator(t)

	// One AI keyword hit, one Cloud keyword hit: AI outranks Cloud.
	cls := e.Classify(models.Opportunity{
		NoticeID:    "N-2",
		Description: "machine learning workloads to support cloud migration",
	})

	if cls.PrimaryDomain != models.DomainAI {
		t.Fatalf("primary = %s, want AI on tie", cls.PrimaryDomain)
	}
	if len(cls.SecondaryDomains) == 0 || cls.SecondaryDomains[0] != models.DomainCloud {
		t.Fatalf("secondary = %v, want [Cloud ...]", cls.SecondaryDomains)
	}
}

func TestClassifyNoSignal(t *testing.T) {
	e := testEvaluator(t)

	cls := e.Classify(models.Opportunity{
		NoticeID:    "N-3",
		Title:       "Lawn Care Services",
		Description: "Mowing and landscaping for the facility grounds.",
	})

	if cls.PrimaryDomain != models.DomainOther {
		t.Fatalf("primary = %s, want Other", cls.PrimaryDomain)
	}
	if len(cls.SecondaryDomains) != 0 {
		t.Fatalf("secondary = %v, want none", cls.SecondaryDomains)
	}
}

func TestSecondaryDomainsCapped(t *testing.T) {
	e := testEvaluator(t)

	cls := e.Classify(models.Opportunity{
		NoticeID: "N-4",
		Description: "machine learning and artificial intelligence models, cybersecurity and zero trust, " +
			"cloud migration to aws, data analytics and data warehouse work, devops with kubernetes, " +
			"help desk support and it operations",
	})

	if len(cls.SecondaryDomains) > 3 {
		t.Fatalf("secondary count = %d, want <= 3", len(cls.SecondaryDomains))
	}
	for _, d := range cls.SecondaryDomains {
		if d == cls.PrimaryDomain {
			t.Fatalf("secondary domains contain primary %s", d)
		}
	}
}

func TestComplexityTiers(t *testing.T) {
	e := testEvaluator(t)

	short := e.Classify(models.Opportunity{Description: "Basic cloud support for one office."})
	if short.Complexity != models.ComplexityLow {
		t.Fatalf("short description complexity = %s, want Low", short.Complexity)
	}

	// A short description that names a "simple" signal stays Medium.
	routine := e.Classify(models.Opportunity{Description: "Routine maintenance of office systems."})
	if routine.Complexity != models.ComplexityMedium {
		t.Fatalf("routine description complexity = %s, want Medium", routine.Complexity)
	}

	enterprise := e.Classify(models.Opportunity{Description: "An enterprise-wide effort spanning all bureaus."})
	if enterprise.Complexity != models.ComplexityHigh {
		t.Fatalf("complex-term description complexity = %s, want High", enterprise.Complexity)
	}

	long := e.Classify(models.Opportunity{Description: strings.Repeat("requirement detail ", 600)})
	if long.Complexity != models.ComplexityHigh {
		t.Fatalf("long description complexity = %s, want High", long.Complexity)
	}

	medium := e.Classify(models.Opportunity{Description: strings.Repeat("requirement detail ", 150)})
	if medium.Complexity != models.ComplexityMedium {
		t.Fatalf("mid-length description complexity = %s, want Medium", medium.Complexity)
	}
}

func TestProjectTypeDecision(t *testing.T) {
	e := testEvaluator(t)

	cases := []struct {
		desc     string
		want     models.ProjectType
		isLegacy bool
	}{
		{"modernization of the legacy system payroll platform", models.ProjectModernization, true},
		{"greenfield development of a new system prototype", models.ProjectGreenfield, false},
		{"help desk and sustainment support services", models.ProjectOperations, false},
		{"maintain the existing system which is approaching end-of-life", models.ProjectLegacy, true},
		{"unspecified technical services", models.ProjectOperations, false},
	}

	for _, tc := range cases {
		cls := e.Classify(models.Opportunity{Description: tc.desc})
		if cls.ProjectType != tc.want {
			t.Fatalf("%q: project type = %s, want %s", tc.desc, cls.ProjectType, tc.want)
		}
		if cls.IsLegacy != tc.isLegacy {
			t.Fatalf("%q: is_legacy = %v, want %v", tc.desc, cls.IsLegacy, tc.isLegacy)
		}
	}
}

func TestClassifyAlwaysHasPrimary(t *testing.T) {
	e := testEvaluator(t)

	for _, opp := range []models.Opportunity{
		{},
		{Title: "x"},
		{Description: "cloud"},
	} {
		cls := e.Classify(opp)
		if cls.PrimaryDomain == "" {
			t.Fatalf("empty primary domain for %+v", opp)
		}
		if cls.Provenance == "" {
			t.Fatalf("empty provenance for %+v", opp)
		}
	}
}
