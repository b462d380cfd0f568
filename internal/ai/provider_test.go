package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/david/contract-finder/internal/models"
)

func TestParseClassificationValid(t *testing.T) {
	raw := `{"primary_domain":"Cloud","secondary_domains":["Data","Cloud","AI"],"complexity":"Medium","project_type":"Modernization","is_legacy":true,"strategic_value":65}`

	cls, err := parseClassification(raw, models.ProvenanceOpenAI)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if cls.PrimaryDomain != models.DomainCloud {
		t.Fatalf("primary = %s, want Cloud", cls.PrimaryDomain)
	}
	// Primary must be excluded from secondaries.
	for _, d := range cls.SecondaryDomains {
		if d == models.DomainCloud {
			t.Fatalf("secondary domains contain primary: %v", cls.SecondaryDomains)
		}
	}
	if cls.Provenance != models.ProvenanceOpenAI {
		t.Fatalf("provenance = %s, want openai", cls.Provenance)
	}
	if cls.StrategicValue == nil || *cls.StrategicValue != 65 {
		t.Fatalf("strategic value = %v, want 65", cls.StrategicValue)
	}
}

func TestParseClassificationCodeFences(t *testing.T) {
	raw := "```json\n{\"primary_domain\":\"AI\",\"complexity\":\"High\",\"project_type\":\"Greenfield\",\"strategic_value\":80}\n```"

	cls, err := parseClassification(raw, models.ProvenanceOllama)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if cls.PrimaryDomain != models.DomainAI {
		t.Fatalf("primary = %s, want AI", cls.PrimaryDomain)
	}
}

func TestParseClassificationAliases(t *testing.T) {
	raw := `{"primary_domain":"AI/ML","complexity":"Low","project_type":"Operations","strategic_value":40}`

	cls, err := parseClassification(raw, models.ProvenanceOpenAI)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if cls.PrimaryDomain != models.DomainAI {
		t.Fatalf("primary = %s, want AI", cls.PrimaryDomain)
	}
}

func TestParseClassificationRejectsUnknownValues(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"primary_domain":"Quantum","complexity":"Medium","project_type":"Operations"}`,
		`{"primary_domain":"Cloud","complexity":"Extreme","project_type":"Operations"}`,
		`{"primary_domain":"Cloud","complexity":"Medium","project_type":"Maintenance"}`,
	}

	for _, raw := range cases {
		_, err := parseClassification(raw, models.ProvenanceOpenAI)
		if err == nil {
			t.Fatalf("expected error for %q", raw)
		}
		if KindOf(err) != ErrMalformedResponse {
			t.Fatalf("kind = %s for %q, want malformed_response", KindOf(err), raw)
		}
	}
}

func TestParseClassificationClampsStrategicValue(t *testing.T) {
	raw := `{"primary_domain":"Cloud","complexity":"Medium","project_type":"Operations","strategic_value":150}`

	cls, err := parseClassification(raw, models.ProvenanceOpenAI)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if *cls.StrategicValue != 100 {
		t.Fatalf("strategic value = %v, want clamped to 100", *cls.StrategicValue)
	}
}

func TestStatusErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}
	for _, tc := range cases {
		err := statusError(models.ProvenanceOpenAI, tc.status)
		if err.Kind != tc.want {
			t.Fatalf("status %d kind = %s, want %s", tc.status, err.Kind, tc.want)
		}
	}
}

func TestOpenAIClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatalf("missing bearer auth")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"primary_domain\":\"Cybersecurity\",\"complexity\":\"High\",\"project_type\":\"Operations\",\"strategic_value\":75}"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "gpt-4o-mini")
	cls, err := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-1", Title: "SOC Support"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.PrimaryDomain != models.DomainCybersecurity {
		t.Fatalf("primary = %s, want Cybersecurity", cls.PrimaryDomain)
	}
	if cls.Provenance != models.ProvenanceOpenAI {
		t.Fatalf("provenance = %s, want openai", cls.Provenance)
	}
}

func TestOpenAIClassifyRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "")
	_, err := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-2"})
	if KindOf(err) != ErrRateLimited {
		t.Fatalf("kind = %s, want rate_limited", KindOf(err))
	}
}

func TestOllamaClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"{\"primary_domain\":\"Data\",\"complexity\":\"Medium\",\"project_type\":\"Operations\",\"strategic_value\":55}","done":true}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "", "")
	cls, err := c.Classify(context.Background(), models.Opportunity{NoticeID: "N-3"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if cls.Provenance != models.ProvenanceOllama {
		t.Fatalf("provenance = %s, want ollama", cls.Provenance)
	}
	if cls.PrimaryDomain != models.DomainData {
		t.Fatalf("primary = %s, want Data", cls.PrimaryDomain)
	}
}

func TestClassifyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewOpenAIClient(srv.URL, "test-key", "")
	_, err := c.Classify(ctx, models.Opportunity{NoticeID: "N-4"})
	if KindOf(err) != ErrTimeout {
		t.Fatalf("kind = %s (%v), want timeout", KindOf(err), err)
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error is not a ProviderError: %v", err)
	}
}
