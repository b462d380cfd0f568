package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/david/contract-finder/internal/models"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ListParams filters and pages the stored notices. When
// QueryEmbedding is set, results are ordered by vector similarity.
type ListParams struct {
	Domain         string
	Agency         string
	ActiveOnly     bool
	QueryEmbedding []float32
	Limit          int
	Offset         int
}

type ListResult struct {
	Opportunities []StoredOpportunity `json:"opportunities"`
	Total         int                 `json:"total"`
	Limit         int                 `json:"limit"`
	Offset        int                 `json:"offset"`
}

// StoredOpportunity is a notice together with the classification it
// was saved with.
type StoredOpportunity struct {
	models.Opportunity
	Classification *models.Classification `json:"classification,omitempty"`
}

const selectCols = `notice_id, title, description, agency, sub_agency, naics, psc,
	set_aside, contract_type, response_type, posted_date, due_date,
	place_of_performance, url,
	primary_domain, secondary_domains, complexity, project_type, is_legacy,
	provenance, strategic_value`

// SaveOpportunity upserts a notice and its classification by notice
// id. A nil embedding leaves any stored embedding untouched.
func (s *Store) SaveOpportunity(ctx context.Context, opp models.Opportunity, cls *models.Classification, embedding []float32) error {
	var (
		primary, complexity, projectType, provenance *string
		secondary                                    []string
		isLegacy                                     bool
		strategic                                    *float64
	)
	if cls != nil {
		primary = ptr(string(cls.PrimaryDomain))
		complexity = ptr(string(cls.Complexity))
		projectType = ptr(string(cls.ProjectType))
		provenance = ptr(string(cls.Provenance))
		isLegacy = cls.IsLegacy
		strategic = cls.StrategicValue
		for _, d := range cls.SecondaryDomains {
			secondary = append(secondary, string(d))
		}
	}

	var emb interface{}
	if embedding != nil {
		v := pgvector.NewVector(embedding)
		emb = &v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO opportunities (
			notice_id, title, description, agency, sub_agency, naics, psc,
			set_aside, contract_type, response_type, posted_date, due_date,
			place_of_performance, url,
			primary_domain, secondary_domains, complexity, project_type,
			is_legacy, provenance, strategic_value, embedding
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (notice_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			agency = EXCLUDED.agency,
			sub_agency = EXCLUDED.sub_agency,
			naics = EXCLUDED.naics,
			psc = EXCLUDED.psc,
			set_aside = EXCLUDED.set_aside,
			contract_type = EXCLUDED.contract_type,
			response_type = EXCLUDED.response_type,
			posted_date = EXCLUDED.posted_date,
			due_date = EXCLUDED.due_date,
			place_of_performance = EXCLUDED.place_of_performance,
			url = EXCLUDED.url,
			primary_domain = COALESCE(EXCLUDED.primary_domain, opportunities.primary_domain),
			secondary_domains = COALESCE(EXCLUDED.secondary_domains, opportunities.secondary_domains),
			complexity = COALESCE(EXCLUDED.complexity, opportunities.complexity),
			project_type = COALESCE(EXCLUDED.project_type, opportunities.project_type),
			is_legacy = EXCLUDED.is_legacy,
			provenance = COALESCE(EXCLUDED.provenance, opportunities.provenance),
			strategic_value = COALESCE(EXCLUDED.strategic_value, opportunities.strategic_value),
			embedding = COALESCE(EXCLUDED.embedding, opportunities.embedding),
			updated_at = NOW()
	`, opp.NoticeID, opp.Title, nilIfEmpty(opp.Description), nilIfEmpty(opp.Agency),
		nilIfEmpty(opp.SubAgency), opp.NAICS, nilIfEmpty(opp.PSC),
		nilIfEmpty(opp.SetAside), nilIfEmpty(opp.ContractType), nilIfEmpty(opp.ResponseType),
		opp.PostedDate, opp.DueDate, nilIfEmpty(opp.PlaceOfPerformance), nilIfEmpty(opp.URL),
		primary, secondary, complexity, projectType, isLegacy, provenance, strategic, emb)
	if err != nil {
		return fmt.Errorf("failed to save opportunity %s: %w", opp.NoticeID, err)
	}
	return nil
}

func (s *Store) GetOpportunity(ctx context.Context, noticeID string) (*StoredOpportunity, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+selectCols+" FROM opportunities WHERE notice_id = $1", noticeID)
	opp, err := scanOpportunity(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity %s: %w", noticeID, err)
	}
	return &opp, nil
}

func (s *Store) ListOpportunities(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}

	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.Domain != "" {
		where += fmt.Sprintf(" AND primary_domain = $%d", argIdx)
		args = append(args, params.Domain)
		argIdx++
	}
	if params.Agency != "" {
		where += fmt.Sprintf(" AND agency ILIKE '%%' || $%d || '%%'", argIdx)
		args = append(args, params.Agency)
		argIdx++
	}
	if params.ActiveOnly {
		where += " AND (due_date IS NULL OR due_date >= NOW())"
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count opportunities: %w", err)
	}

	order := "ORDER BY posted_date DESC NULLS LAST"
	if len(params.QueryEmbedding) > 0 {
		order = fmt.Sprintf("ORDER BY embedding <=> $%d", argIdx)
		args = append(args, pgvector.NewVector(params.QueryEmbedding))
		argIdx++
	}

	query := fmt.Sprintf("SELECT %s FROM opportunities %s %s LIMIT $%d OFFSET $%d",
		selectCols, where, order, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	opps := make([]StoredOpportunity, 0, params.Limit)
	for rows.Next() {
		opp, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}

	return &ListResult{
		Opportunities: opps,
		Total:         total,
		Limit:         params.Limit,
		Offset:        params.Offset,
	}, nil
}

func scanOpportunity(scan func(dest ...interface{}) error) (StoredOpportunity, error) {
	var o StoredOpportunity
	var description, agency, subAgency, psc, setAside, contractType *string
	var responseType, place, url *string
	var primary, complexity, projectType, provenance *string
	var secondary []string
	var isLegacy bool
	var strategic *float64

	err := scan(
		&o.NoticeID, &o.Title, &description, &agency, &subAgency, &o.NAICS, &psc,
		&setAside, &contractType, &responseType, &o.PostedDate, &o.DueDate,
		&place, &url,
		&primary, &secondary, &complexity, &projectType, &isLegacy,
		&provenance, &strategic,
	)
	if err != nil {
		return o, err
	}

	o.Description = deref(description)
	o.Agency = deref(agency)
	o.SubAgency = deref(subAgency)
	o.PSC = deref(psc)
	o.SetAside = deref(setAside)
	o.ContractType = deref(contractType)
	o.ResponseType = deref(responseType)
	o.PlaceOfPerformance = deref(place)
	o.URL = deref(url)

	if primary != nil && provenance != nil {
		cls := models.Classification{
			PrimaryDomain:  models.Domain(*primary),
			Complexity:     models.Complexity(deref(complexity)),
			ProjectType:    models.ProjectType(deref(projectType)),
			IsLegacy:       isLegacy,
			Provenance:     models.Provenance(*provenance),
			StrategicValue: strategic,
		}
		for _, d := range secondary {
			cls.SecondaryDomains = append(cls.SecondaryDomains, models.Domain(d))
		}
		o.Classification = &cls
	}

	return o, nil
}

// SaveScore upserts one scoring result keyed by notice id and company.
func (s *Store) SaveScore(ctx context.Context, noticeID, companyName string, score models.FitScore) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	explanations, err := json.Marshal(score.Explanations)
	if err != nil {
		return fmt.Errorf("failed to marshal explanations: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scores (notice_id, company_name, total, recommendation, breakdown, explanations, risk_factors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (notice_id, company_name) DO UPDATE SET
			total = EXCLUDED.total,
			recommendation = EXCLUDED.recommendation,
			breakdown = EXCLUDED.breakdown,
			explanations = EXCLUDED.explanations,
			risk_factors = EXCLUDED.risk_factors,
			created_at = NOW()
	`, noticeID, companyName, score.Total, string(score.Recommendation), breakdown, explanations, score.RiskFactors)
	if err != nil {
		return fmt.Errorf("failed to save score for %s: %w", noticeID, err)
	}
	return nil
}

// ScoredNotice is one row of a company's ranked score list.
type ScoredNotice struct {
	NoticeID       string                   `json:"notice_id"`
	Title          string                   `json:"title"`
	Agency         string                   `json:"agency"`
	Total          float64                  `json:"total"`
	Recommendation models.RecommendedAction `json:"recommendation"`
	RiskFactors    []string                 `json:"risk_factors,omitempty"`
}

// ListScores returns a company's saved scores, best fit first. An
// empty recommendation returns all of them.
func (s *Store) ListScores(ctx context.Context, companyName, recommendation string, limit int) ([]ScoredNotice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT s.notice_id, o.title, COALESCE(o.agency, ''), s.total, s.recommendation, s.risk_factors
		FROM scores s
		JOIN opportunities o ON o.notice_id = s.notice_id
		WHERE s.company_name = $1
		  AND ($2 = '' OR s.recommendation = $2)
		ORDER BY s.total DESC
		LIMIT $3
	`, companyName, recommendation, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var out []ScoredNotice
	for rows.Next() {
		var n ScoredNotice
		var rec string
		if err := rows.Scan(&n.NoticeID, &n.Title, &n.Agency, &n.Total, &rec, &n.RiskFactors); err != nil {
			return nil, err
		}
		n.Recommendation = models.RecommendedAction(rec)
		out = append(out, n)
	}
	return out, nil
}

// SaveProfile upserts a capability profile by company name.
func (s *Store) SaveProfile(ctx context.Context, p models.CapabilityProfile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (company_name, core_domains, technical_skills, naics, preferred_agencies, certifications, role_preference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_name) DO UPDATE SET
			core_domains = EXCLUDED.core_domains,
			technical_skills = EXCLUDED.technical_skills,
			naics = EXCLUDED.naics,
			preferred_agencies = EXCLUDED.preferred_agencies,
			certifications = EXCLUDED.certifications,
			role_preference = EXCLUDED.role_preference,
			updated_at = NOW()
	`, p.CompanyName, p.CoreDomains, p.TechnicalSkills, p.NAICS,
		p.PreferredAgencies, p.Certifications, nilIfEmpty(p.RolePreference))
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.CompanyName, err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, companyName string) (*models.CapabilityProfile, error) {
	var p models.CapabilityProfile
	var role *string
	err := s.pool.QueryRow(ctx, `
		SELECT company_name, core_domains, technical_skills, naics, preferred_agencies, certifications, role_preference
		FROM profiles WHERE company_name = $1
	`, companyName).Scan(&p.CompanyName, &p.CoreDomains, &p.TechnicalSkills, &p.NAICS,
		&p.PreferredAgencies, &p.Certifications, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", companyName, err)
	}
	p.RolePreference = deref(role)
	return &p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT company_name FROM profiles ORDER BY company_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func nilIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func ptr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
