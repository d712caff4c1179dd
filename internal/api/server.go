package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/launchpadhq/launchpad/internal/aggregate"
	"github.com/launchpadhq/launchpad/internal/auth"
	"github.com/launchpadhq/launchpad/internal/db"
	"github.com/launchpadhq/launchpad/internal/models"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Pipeline    *aggregate.Pipeline
	Registry    *aggregate.Registry
	Echo        *echo.Echo
	DB          *pgxpool.Pool
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool, pipeline *aggregate.Pipeline, registry *aggregate.Registry) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:5173"}
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
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	s := &Server{
		DB:          pool,
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Pipeline:    pipeline,
		Registry:    registry,
		Echo:        e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/sources", s.handleGetSources)

	// Admin Routes (curated records & seed)
	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/opportunities", s.handleCreateOpportunity)
	admin.PATCH("/opportunities/:id", s.handleUpdateOpportunity)
	admin.PATCH("/opportunities/:id/active", s.handleSetOpportunityActive)
	admin.DELETE("/opportunities/:id", s.handleDeleteOpportunity)
	admin.POST("/seed", s.handleSeed)

	// Auth Routes
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Protected Routes (Saved Opportunities)
	saved := api.Group("/saved")
	saved.Use(auth.Middleware)
	saved.POST("/:id", s.handleSaveOpportunity)
	saved.DELETE("/:id", s.handleUnsaveOpportunity)
	saved.GET("", s.handleGetSavedOpportunities)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// handleListOpportunities runs the aggregation pipeline and returns the
// merged feed. live=false skips the external fetches and serves only the
// curated subset, which is what a frontend renders while the full pass is
// in flight. type narrows to one variant; sort accepts deadline (default),
// deadline_desc and title.
func (s *Server) handleListOpportunities(c echo.Context) error {
	ctx := c.Request().Context()

	var res aggregate.Result
	if c.QueryParam("live") == "false" {
		res = s.Pipeline.RunDatabaseOnly(ctx)
	} else {
		res = s.Pipeline.Run(ctx)
	}

	if t := c.QueryParam("type"); t != "" {
		kind := models.OpportunityType(t)
		if !kind.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown type %q", t)})
		}
		filtered := res.Opportunities[:0:0]
		for _, o := range res.Opportunities {
			if o.Type == kind {
				filtered = append(filtered, o)
			}
		}
		res.Opportunities = filtered
		res.Total = len(filtered)
	}

	switch c.QueryParam("sort") {
	case "", "deadline":
		// Pipeline output is already ascending by deadline.
	case "deadline_desc":
		sort.SliceStable(res.Opportunities, func(i, j int) bool {
			return res.Opportunities[j].Deadline.Before(res.Opportunities[i].Deadline)
		})
	case "title":
		sort.SliceStable(res.Opportunities, func(i, j int) bool {
			return strings.ToLower(res.Opportunities[i].Title) < strings.ToLower(res.Opportunities[j].Title)
		})
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown sort order"})
	}

	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid opportunity id"})
	}

	opp, err := s.Store.Get(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "opportunity not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, opp)
}

// handleGetSources exposes the registry so a frontend can show where the
// feed comes from. Credentials never appear here; the registry has none.
func (s *Server) handleGetSources(c echo.Context) error {
	type sourceInfo struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		Priority int    `json:"priority"`
		Enabled  bool   `json:"enabled"`
	}
	out := make([]sourceInfo, 0, len(s.Registry.Sources))
	for _, cfg := range s.Registry.Sources {
		out = append(out, sourceInfo{
			ID: cfg.ID, Name: cfg.Name, Kind: cfg.Kind,
			Priority: cfg.Priority, Enabled: cfg.Enabled,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": out})
}

// Admin handlers

func (s *Server) handleCreateOpportunity(c echo.Context) error {
	var in db.OpportunityInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	opp, err := s.Store.Create(c.Request().Context(), &in)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, opp)
}

func (s *Server) handleUpdateOpportunity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid opportunity id"})
	}

	var in db.OpportunityInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	opp, err := s.Store.Update(c.Request().Context(), id, &in)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "opportunity not found"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleSetOpportunityActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid opportunity id"})
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	err = s.Store.SetActive(c.Request().Context(), id, body.Active)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "opportunity not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "active": body.Active})
}

func (s *Server) handleDeleteOpportunity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid opportunity id"})
	}

	err = s.Store.Delete(c.Request().Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "opportunity not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSeed(c echo.Context) error {
	now := time.Now().UTC()
	seeds := []db.OpportunityInput{
		{
			Title:        "Smart India Hackathon 2026",
			Type:         models.TypeHackathon,
			Organization: "Government of India",
			Description:  "Nationwide hackathon solving problem statements from ministries and industry partners.",
			Deadline:     time.Date(2026, 9, 30, 23, 59, 59, 0, time.UTC),
			ApplyURL:     "https://sih.gov.in",
			Location:     "India (Hybrid)",
			Prize:        "₹1,00,000 per problem statement",
			Tags:         []string{"Hackathon", "Government", "Students"},
		},
		{
			Title:        "Google Summer of Code 2027",
			Type:         models.TypeInternship,
			Organization: "Google",
			Description:  "Paid open source program pairing new contributors with mentoring organizations for a 12+ week project.",
			Deadline:     time.Date(2027, 4, 5, 18, 0, 0, 0, time.UTC),
			ApplyURL:     "https://summerofcode.withgoogle.com",
			Prize:        "Stipend up to $6,600",
			Tags:         []string{"Internship", "Open Source"},
		},
		{
			Title:        "Microsoft Imagine Cup",
			Type:         models.TypeContest,
			Organization: "Microsoft",
			Description:  "Global student technology competition. Build a solution with Azure and pitch it to industry judges.",
			Deadline:     now.AddDate(0, 2, 0),
			ApplyURL:     "https://imaginecup.microsoft.com",
			Prize:        "$100,000 + Azure credits",
			Tags:         []string{"Students", "Cloud"},
		},
		{
			Title:        "MLH Fellowship",
			Type:         models.TypeInternship,
			Organization: "Major League Hacking",
			Description:  "Remote internship alternative: 12 weeks contributing to open source or building production projects with peers and mentors.",
			Deadline:     now.AddDate(0, 1, 15),
			ApplyURL:     "https://fellowship.mlh.io",
			Prize:        "Stipend available",
			Tags:         []string{"Internship", "Open Source", "Remote"},
		},
	}

	inserted, err := s.Store.Seed(c.Request().Context(), seeds)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]int{"inserted": inserted})
}

// Auth handlers

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if !strings.Contains(req.Email, "@") || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "valid email and a password of at least 8 characters are required"})
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

// Favorites handlers

func (s *Server) handleSaveOpportunity(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid opportunity id"})
	}

	if err := s.AuthService.SaveOpportunity(c.Request().Context(), userID, oppID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleUnsaveOpportunity(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
	oppID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid opportunity id"})
	}

	if err := s.AuthService.UnsaveOpportunity(c.Request().Context(), userID, oppID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleGetSavedOpportunities(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
	}

	opps, err := s.AuthService.GetSavedOpportunities(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"opportunities": opps, "total": len(opps)})
}

// Admin secret handling

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		// Check X-Admin-Secret header or Bearer token
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate admin fallback secret: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", errors.New("admin secret unavailable")
	}
	return adminSecretRuntime, nil
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
