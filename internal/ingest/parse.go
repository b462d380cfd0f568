package ingest

import (
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/david/contract-finder/internal/models"
)

type searchResponse struct {
	TotalRecords      int         `json:"totalRecords"`
	OpportunitiesData []samNotice `json:"opportunitiesData"`
}

// samNotice mirrors the fields of one record in a SAM.gov search
// response that this system consumes.
type samNotice struct {
	NoticeID           string `json:"noticeId"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	FullParentPathName string `json:"fullParentPathName"`
	NAICSCode          string `json:"naicsCode"`
	NAICSCodes         []struct {
		Code string `json:"naicsCode"`
	} `json:"naicsCodes"`
	ClassificationCode string `json:"classificationCode"`
	TypeOfSetAside     string `json:"typeOfSetAsideDescription"`
	Type               string `json:"type"`
	ResponseDeadline   string `json:"responseDeadLine"`
	PostedDate         string `json:"postedDate"`
	UILink             string `json:"uiLink"`
	PlaceOfPerformance struct {
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		State struct {
			Name string `json:"name"`
		} `json:"state"`
	} `json:"placeOfPerformance"`
}

func parseNotice(raw samNotice) models.Opportunity {
	agency, subAgency := splitAgencyPath(raw.FullParentPathName)

	var naics []string
	if raw.NAICSCode != "" {
		naics = append(naics, raw.NAICSCode)
	}
	for _, n := range raw.NAICSCodes {
		naics = appendUnique(naics, n.Code)
	}

	place := raw.PlaceOfPerformance.City.Name
	if s := raw.PlaceOfPerformance.State.Name; s != "" {
		if place != "" {
			place += ", "
		}
		place += s
	}

	return models.Opportunity{
		NoticeID:           strings.TrimSpace(raw.NoticeID),
		Title:              normalizeSpace(raw.Title),
		Description:        strings.TrimSpace(raw.Description),
		Agency:             agency,
		SubAgency:          subAgency,
		NAICS:              naics,
		PSC:                raw.ClassificationCode,
		SetAside:           normalizeSpace(raw.TypeOfSetAside),
		ResponseType:       raw.Type,
		PostedDate:         parseNoticeDate(raw.PostedDate),
		DueDate:            parseNoticeDate(raw.ResponseDeadline),
		PlaceOfPerformance: place,
		URL:                raw.UILink,
	}
}

// splitAgencyPath extracts department and sub-tier from SAM's
// dot-delimited fullParentPathName ("DEPT OF DEFENSE.DEPT OF THE
// NAVY...").
func splitAgencyPath(path string) (agency, subAgency string) {
	parts := strings.Split(path, ".")
	if len(parts) > 0 {
		agency = cleanAgencyName(parts[0])
	}
	if len(parts) > 1 {
		subAgency = cleanAgencyName(parts[1])
	}
	return agency, subAgency
}

func cleanAgencyName(s string) string {
	s = normalizeSpace(s)
	if strings.HasPrefix(strings.ToUpper(s), "DEPT OF") {
		s = "DEPARTMENT OF" + s[len("DEPT OF"):]
	}
	return s
}

var noticeDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseNoticeDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range noticeDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

var strictPolicy = bluemonday.StrictPolicy()

// cleanNoticeText strips markup from a notice description and
// collapses whitespace. Descriptions arrive as HTML more often than
// not; anything goquery leaves behind is removed by the strict
// sanitizer, and entities it escapes are restored.
func cleanNoticeText(s string) string {
	if s == "" {
		return ""
	}
	if strings.Contains(s, "<") {
		s = htmlToText(s)
	}
	s = strictPolicy.Sanitize(s)
	return normalizeSpace(html.UnescapeString(s))
}

func htmlToText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw // Fallback to original if parsing fails
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// normalizeSpace collapses runs of whitespace into single spaces and
// trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// appendUnique appends a string to a slice if it doesn't already exist
// (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, vClean) {
			return list
		}
	}
	return append(list, vClean)
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}
