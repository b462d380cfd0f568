package ingest

import (
	"time"

	"github.com/david/contract-finder/internal/models"
)

// MockOpportunities returns a small fixed set of notices used when no
// SAM.gov API key is configured, covering several domains so the
// pipeline can be exercised end to end.
func MockOpportunities() []models.Opportunity {
	posted := time.Now().AddDate(0, 0, -7)
	due := time.Now().AddDate(0, 0, 21)

	return []models.Opportunity{
		{
			NoticeID: "MOCK-001",
			Title:    "Cloud Migration and Modernization Services",
			Description: "The agency seeks a contractor to perform cloud migration of legacy on-premise " +
				"applications to a FedRAMP authorized cloud platform, including replatforming, devops " +
				"pipeline setup, and operations and maintenance of the migrated workloads.",
			Agency:       "DEPARTMENT OF DEFENSE",
			SubAgency:    "DEPARTMENT OF THE ARMY",
			NAICS:        []string{"541512"},
			SetAside:     "Total Small Business Set-Aside",
			ResponseType: "Solicitation",
			PostedDate:   &posted,
			DueDate:      &due,
			URL:          "https://sam.gov/opp/MOCK-001/view",
		},
		{
			NoticeID: "MOCK-002",
			Title:    "Artificial Intelligence Analytics Platform",
			Description: "Development of a machine learning and data analytics platform to support " +
				"predictive analytics across clinical datasets. Work includes natural language " +
				"processing of unstructured records and deployment of models to a secure cloud environment.",
			Agency:       "DEPARTMENT OF VETERANS AFFAIRS",
			NAICS:        []string{"541511", "518210"},
			ResponseType: "Sources Sought",
			PostedDate:   &posted,
			DueDate:      &due,
			URL:          "https://sam.gov/opp/MOCK-002/view",
		},
		{
			NoticeID: "MOCK-003",
			Title:    "Enterprise IT Help Desk Support",
			Description: "Routine help desk and service desk support services for agency staff, " +
				"including tier 1 and tier 2 ticket handling, ITSM tooling administration, and desktop support.",
			Agency:       "GENERAL SERVICES ADMINISTRATION",
			NAICS:        []string{"541513"},
			SetAside:     "Service-Disabled Veteran-Owned Small Business (SDVOSB) Set-Aside",
			ResponseType: "Combined Synopsis/Solicitation",
			PostedDate:   &posted,
			DueDate:      &due,
			URL:          "https://sam.gov/opp/MOCK-003/view",
		},
	}
}
