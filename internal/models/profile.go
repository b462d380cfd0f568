package models

// RolePreference values accepted on a capability profile.
const (
	RolePrime         = "Prime"
	RoleSubcontractor = "Subcontractor"
	RoleEither        = "Either"
)

// CapabilityProfile describes a company's capabilities for fit scoring.
type CapabilityProfile struct {
	CompanyName       string   `json:"company_name" validate:"required"`
	CoreDomains       []string `json:"core_domains" validate:"required,min=1"`
	TechnicalSkills   []string `json:"technical_skills"`
	NAICS             []string `json:"naics"`
	PreferredAgencies []string `json:"preferred_agencies"`
	Certifications    []string `json:"certifications"`
	RolePreference    string   `json:"role_preference" validate:"omitempty,oneof=Prime Subcontractor Either"`
}

// WantsPrime reports whether the company competes as a prime
// contractor (directly or either role).
func (p CapabilityProfile) WantsPrime() bool {
	return p.RolePreference == RolePrime || p.RolePreference == RoleEither || p.RolePreference == ""
}
