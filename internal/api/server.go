// Package api exposes the REST surface: notice ingestion, scoring,
// profile management, and auth.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/contract-finder/internal/ai"
	"github.com/david/contract-finder/internal/auth"
	"github.com/david/contract-finder/internal/classify"
	"github.com/david/contract-finder/internal/config"
	"github.com/david/contract-finder/internal/db"
	"github.com/david/contract-finder/internal/ingest"
	"github.com/david/contract-finder/internal/models"
	"github.com/david/contract-finder/internal/scoring"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool

	SAM         *ingest.SAMClient
	Coordinator *classify.Coordinator
	Engine      *scoring.Engine
	Runner      *classify.BatchRunner
	Embedder    ai.Embedder

	validate *validator.Validate
}

// NewServer wires the full pipeline. It fails only on configuration
// that leaves no evaluator constructible (broken keyword table or
// invalid scoring weights); missing AI providers just narrow the
// fallback chain.
func NewServer(pool *pgxpool.Pool, cfg config.Settings) (*Server, error) {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	kw, err := classify.LoadKeywords()
	if err != nil {
		return nil, fmt.Errorf("keyword table unusable, no evaluator available: %w", err)
	}
	rules := classify.NewRuleEvaluator(kw)

	engine, err := scoring.NewEngine(scoring.DefaultWeights(), cfg.StrategicBaseline)
	if err != nil {
		return nil, fmt.Errorf("scoring engine: %w", err)
	}

	var primary ai.Classifier
	if cfg.OpenAIAPIKey != "" {
		primary = ai.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	ollama := ai.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, "")

	coordinator := classify.NewCoordinator(rules, cfg.ProviderTimeout, primary, ollama)

	s := &Server{
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Echo:        e,
		DB:          pool,
		SAM:         ingest.NewSAMClient(cfg.SAMAPIKey, cfg.SAMBaseURL),
		Coordinator: coordinator,
		Engine:      engine,
		Runner:      classify.NewBatchRunner(coordinator, engine, cfg.ScoringWorkers),
		Embedder:    ollama,
		validate:    validator.New(),
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/profiles", s.handleListProfiles)
	api.GET("/profiles/:company", s.handleGetProfile)
	api.GET("/scores", s.handleListScores)

	// Auth Routes
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Protected Routes (ingest, scoring, profile writes)
	protected := api.Group("")
	protected.Use(auth.Middleware)
	protected.POST("/opportunities/fetch", s.handleFetchOpportunities)
	protected.POST("/opportunities/score", s.handleScoreOpportunities)
	protected.POST("/opportunities/fetch-and-score", s.handleFetchAndScore)
	protected.POST("/profiles", s.handleSaveProfile)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.DB.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unreachable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

type fetchRequest struct {
	NAICS      []string `json:"naics"`
	Keywords   []string `json:"keywords"`
	PostedDays int      `json:"posted_days"`
	Limit      int      `json:"limit"`
	ActiveOnly bool     `json:"active_only"`
}

func (r fetchRequest) searchParams() ingest.SearchParams {
	return ingest.SearchParams{
		NAICS:      r.NAICS,
		Keywords:   r.Keywords,
		PostedDays: r.PostedDays,
		Limit:      r.Limit,
		ActiveOnly: r.ActiveOnly,
	}
}

// handleFetchOpportunities pulls notices from SAM.gov, classifies and
// stores each, and returns the stored set.
func (s *Server) handleFetchOpportunities(c echo.Context) error {
	var req fetchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	ctx := c.Request().Context()

	opps, err := s.SAM.FetchOpportunities(ctx, req.searchParams())
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	stored := make([]db.StoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		cls := s.Coordinator.Classify(ctx, opp)

		embedding, err := s.Embedder.GenerateEmbedding(ctx, opp.Title+" "+opp.Description)
		if err != nil {
			embedding = nil // embeddings are best-effort
		}
		if err := s.Store.SaveOpportunity(ctx, opp, &cls, embedding); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		stored = append(stored, db.StoredOpportunity{Opportunity: opp, Classification: &cls})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"count":         len(stored),
		"opportunities": stored,
	})
}

type scoreRequest struct {
	Opportunities []models.Opportunity      `json:"opportunities"`
	Profile       *models.CapabilityProfile `json:"profile"`
	CompanyName   string                    `json:"company_name"`
	Save          bool                      `json:"save"`
}

type scoredItem struct {
	Opportunity    models.Opportunity     `json:"opportunity"`
	Classification *models.Classification `json:"classification,omitempty"`
	Score          *models.FitScore       `json:"score,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

func (s *Server) resolveProfile(c echo.Context, req scoreRequest) (*models.CapabilityProfile, error) {
	if req.Profile != nil {
		if err := s.validate.Struct(req.Profile); err != nil {
			return nil, err
		}
		return req.Profile, nil
	}
	if req.CompanyName == "" {
		return nil, errors.New("either profile or company_name is required")
	}
	return s.Store.GetProfile(c.Request().Context(), req.CompanyName)
}

// handleScoreOpportunities evaluates the supplied notices against a
// profile. Per-item failures come back inline; they never abort the
// batch.
func (s *Server) handleScoreOpportunities(c echo.Context) error {
	var req scoreRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if len(req.Opportunities) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "opportunities is required"})
	}

	profile, err := s.resolveProfile(c, req)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return s.evaluateAndRespond(c, req.Opportunities, *profile, req.Save)
}

// handleFetchAndScore combines ingestion and scoring in one call.
func (s *Server) handleFetchAndScore(c echo.Context) error {
	var req struct {
		fetchRequest
		scoreRequest
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	profile, err := s.resolveProfile(c, req.scoreRequest)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	opps, err := s.SAM.FetchOpportunities(c.Request().Context(), req.searchParams())
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	return s.evaluateAndRespond(c, opps, *profile, true)
}

func (s *Server) evaluateAndRespond(c echo.Context, opps []models.Opportunity, profile models.CapabilityProfile, save bool) error {
	ctx := c.Request().Context()
	results := s.Runner.Evaluate(ctx, opps, profile)

	items := make([]scoredItem, 0, len(results))
	for _, res := range results {
		item := scoredItem{
			Opportunity:    res.Opportunity,
			Classification: res.Classification,
			Score:          res.Score,
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else if save {
			if err := s.Store.SaveOpportunity(ctx, res.Opportunity, res.Classification, nil); err != nil {
				item.Error = err.Error()
			} else if err := s.Store.SaveScore(ctx, res.Opportunity.NoticeID, profile.CompanyName, *res.Score); err != nil {
				item.Error = err.Error()
			}
		}
		items = append(items, item)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"company": profile.CompanyName,
		"count":   len(items),
		"results": items,
	})
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	params := db.ListParams{
		Domain:     c.QueryParam("domain"),
		Agency:     c.QueryParam("agency"),
		ActiveOnly: c.QueryParam("active") == "true",
		Limit:      intQueryParam(c, "limit"),
		Offset:     intQueryParam(c, "offset"),
	}

	// Optional semantic search over stored embeddings.
	if q := c.QueryParam("q"); q != "" {
		if embedding, err := s.Embedder.GenerateEmbedding(c.Request().Context(), q); err == nil {
			params.QueryEmbedding = embedding
		}
	}

	result, err := s.Store.ListOpportunities(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	opp, err := s.Store.GetOpportunity(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "opportunity not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleSaveProfile(c echo.Context) error {
	var profile models.CapabilityProfile
	if err := c.Bind(&profile); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := s.validate.Struct(profile); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := s.Store.SaveProfile(c.Request().Context(), profile); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	profile, err := s.Store.GetProfile(c.Request().Context(), c.Param("company"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) handleListProfiles(c echo.Context) error {
	names, err := s.Store.ListProfiles(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"profiles": names})
}

func (s *Server) handleListScores(c echo.Context) error {
	company := c.QueryParam("company")
	if company == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "company is required"})
	}

	scores, err := s.Store.ListScores(c.Request().Context(), company,
		c.QueryParam("recommendation"), intQueryParam(c, "limit"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"company": company, "scores": scores})
}

func intQueryParam(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}
