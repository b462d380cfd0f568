// Package ingest fetches contracting notices from the SAM.gov
// opportunities API and normalizes them into models.Opportunity
// records for the classification pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/david/contract-finder/internal/models"
)

// ITNAICSCodes are the NAICS codes treated as IT work when filtering
// search results.
var ITNAICSCodes = []string{
	"541511", // Custom Computer Programming Services
	"541512", // Computer Systems Design Services
	"541513", // Computer Facilities Management Services
	"541519", // Other Computer Related Services
	"518210", // Data Processing, Hosting, and Related Services
	"541330", // Engineering Services
	"541690", // Other Scientific and Technical Consulting
}

// ITKeywords backstop the NAICS filter for notices posted under
// non-IT codes.
var ITKeywords = []string{
	"software", "cloud", "cybersecurity", "data analytics",
	"artificial intelligence", "machine learning", "devops",
	"it services", "information technology", "modernization",
}

// SearchParams bound one search against the opportunities API.
type SearchParams struct {
	NAICS      []string
	Keywords   []string
	PostedDays int // look-back window, default 30
	Limit      int
	ActiveOnly bool
}

// SAMClient is a rate-limit-aware client for the SAM.gov
// opportunities API. Without an API key it serves mock notices so the
// rest of the pipeline stays usable in development.
type SAMClient struct {
	APIKey     string
	BaseURL    string
	Client     *http.Client
	MaxRetries int
}

func NewSAMClient(apiKey, baseURL string) *SAMClient {
	if baseURL == "" {
		baseURL = "https://api.sam.gov/opportunities/v2"
	}
	return &SAMClient{
		APIKey:     apiKey,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: 60 * time.Second},
		MaxRetries: 3,
	}
}

// FetchOpportunities searches SAM.gov and returns parsed, IT-filtered
// notices. With no API key configured it logs a warning and returns
// the mock set.
func (c *SAMClient) FetchOpportunities(ctx context.Context, params SearchParams) ([]models.Opportunity, error) {
	if c.APIKey == "" {
		log.Print("SAM_API_KEY is not set; returning mock opportunities")
		return MockOpportunities(), nil
	}

	body, err := c.get(ctx, c.BaseURL+"/search?"+c.buildQuery(params).Encode())
	if err != nil {
		return nil, fmt.Errorf("sam search failed: %w", err)
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	opps := make([]models.Opportunity, 0, len(page.OpportunitiesData))
	for _, raw := range page.OpportunitiesData {
		opp := parseNotice(raw)
		if opp.NoticeID == "" {
			continue
		}
		if !isITOpportunity(opp) {
			continue
		}
		if params.ActiveOnly && opp.DueDate != nil && opp.DueDate.Before(time.Now()) {
			continue
		}

		c.resolveDescription(ctx, &opp)
		opps = append(opps, opp)
	}

	log.Printf("sam search returned %d notices, %d after IT filter", len(page.OpportunitiesData), len(opps))
	return opps, nil
}

// buildQuery translates SearchParams to the API's query format. Dates
// use MM/DD/YYYY per the SAM.gov contract.
func (c *SAMClient) buildQuery(params SearchParams) url.Values {
	days := params.PostedDays
	if days <= 0 {
		days = 30
	}
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	naics := params.NAICS
	if len(naics) == 0 {
		naics = ITNAICSCodes
	}

	now := time.Now()
	q := url.Values{}
	q.Set("postedFrom", now.AddDate(0, 0, -days).Format("01/02/2006"))
	q.Set("postedTo", now.Format("01/02/2006"))
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("ncode", strings.Join(naics, ","))
	if params.ActiveOnly {
		q.Set("status", "active")
	}
	if len(params.Keywords) > 0 {
		kw := params.Keywords
		if len(kw) > 5 {
			kw = kw[:5]
		}
		q.Set("q", strings.Join(kw, " "))
	}
	return q
}

// get issues one authenticated GET with retry on rate-limit and
// server errors. SAM.gov accepts the key either as a query parameter
// or a header; the header form is tried when the query form is
// rejected as unauthorized.
func (c *SAMClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	useHeader := false
	var lastErr error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 0.5s, 1s, 2s + jitter
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		reqURL := rawURL
		if !useHeader {
			sep := "&"
			if !strings.Contains(rawURL, "?") {
				sep = "?"
			}
			reqURL = rawURL + sep + "api_key=" + url.QueryEscape(c.APIKey)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if useHeader {
			req.Header.Set("X-Api-Key", c.APIKey)
		}

		resp, err := c.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := readAll(resp)
		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("failed to read response: %w", readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			if !useHeader {
				// Some deployments only accept the header form.
				useHeader = true
				lastErr = fmt.Errorf("status code %d with query-param key", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("unauthorized: status code %d", resp.StatusCode)
		case shouldRetry(resp.StatusCode):
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// resolveDescription replaces a noticedesc API link with the actual
// description text. Failures are logged and left as-is: a missing
// description degrades classification, it does not block ingestion.
func (c *SAMClient) resolveDescription(ctx context.Context, opp *models.Opportunity) {
	if !strings.Contains(opp.Description, "noticedesc") {
		opp.Description = cleanNoticeText(opp.Description)
		return
	}

	descCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	body, err := c.get(descCtx, opp.Description)
	if err != nil {
		log.Printf("description fetch failed for notice %s: %v", opp.NoticeID, err)
		opp.Description = ""
		return
	}

	var desc struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &desc); err != nil {
		// Some responses are bare HTML rather than JSON.
		desc.Description = string(body)
	}
	opp.Description = truncateText(cleanNoticeText(desc.Description), 10000)
}

func readAll(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

// shouldRetry reports whether a status code warrants another attempt.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func isITOpportunity(opp models.Opportunity) bool {
	for _, code := range opp.NAICS {
		for _, it := range ITNAICSCodes {
			if code == it {
				return true
			}
		}
	}

	text := strings.ToLower(opp.Title + " " + opp.Description)
	for _, kw := range ITKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
