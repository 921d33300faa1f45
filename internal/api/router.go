// internal/api/router.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"infinz-leadgen/internal/common/auth"
	"infinz-leadgen/internal/common/database"
	"infinz-leadgen/internal/common/errors"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/validation"
	calculateemi "infinz-leadgen/internal/handlers/calculator/calculate-emi"
	fetchposts "infinz-leadgen/internal/handlers/content/fetch-posts"
	searchdictionary "infinz-leadgen/internal/handlers/content/search-dictionary"
	"infinz-leadgen/internal/models"
	"infinz-leadgen/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WizardService is the application flow behind the /api/wizard routes.
type WizardService interface {
	Start(ctx context.Context, loanType models.LoanType, applyData *models.ApplyData) (*wizard.View, error)
	Get(ctx context.Context, id string) (*wizard.View, error)
	SubmitMobile(ctx context.Context, id, mobile string) (*wizard.View, error)
	ResendOTP(ctx context.Context, id string) (*wizard.View, error)
	VerifyOTP(ctx context.Context, id, otp string) (*wizard.View, error)
	SubmitPersonalDetails(ctx context.Context, id string, pd models.PersonalDetails) (*wizard.View, error)
	UploadSalarySlip(ctx context.Context, id string, slip *wizard.SalarySlip) (*wizard.View, error)
	SubmitLoan(ctx context.Context, id string, form *wizard.LoanForm) (*wizard.View, error)
	Reset(ctx context.Context, id string, loanType models.LoanType) (*wizard.View, error)
}

type Dependencies struct {
	Wizard     WizardService
	Sessions   *auth.SessionIssuer
	Schemas    *validation.SchemaValidator
	Calculator *calculateemi.Handler
	Dictionary *searchdictionary.Handler
	Content    *fetchposts.Handler
	Checkers   []database.Checker

	Version        string
	UploadMaxBytes int64
	AllowedOrigins []string
	Logger         logger.Logger
}

type Server struct {
	deps   Dependencies
	errors *errors.ErrorHandler
	logger logger.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.UploadMaxBytes <= 0 {
		deps.UploadMaxBytes = 5 << 20
	}
	s := &Server{
		deps:   deps,
		errors: errors.NewErrorHandler(deps.Logger),
		logger: deps.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(deps.Logger), CORS(deps.AllowedOrigins))
	r.NoRoute(func(c *gin.Context) {
		s.errors.Respond(c, errors.NewNotFoundError("route"))
	})

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/wizard/sessions", s.startSession)

		wz := api.Group("/wizard")
		wz.Use(SessionAuth(deps.Sessions, s.errors))
		wz.GET("", s.getDraft)
		wz.POST("/mobile", s.submitMobile)
		wz.POST("/otp/resend", s.resendOTP)
		wz.POST("/otp/verify", s.verifyOTP)
		wz.POST("/personal-details", s.submitPersonalDetails)
		wz.POST("/salary-slip", s.uploadSalarySlip)
		wz.POST("/loan", s.submitLoan)
		wz.POST("/reset", s.reset)

		api.POST("/calculator/emi", s.calculateEMI)
		api.GET("/dictionary", s.searchDictionary)
		api.GET("/dictionary/categories", s.dictionaryCategories)
		api.GET("/content/:kind", s.listContent)
	}

	return r
}

// bind validates the raw body against schema before decoding it into out.
func (s *Server) bind(c *gin.Context, schema string, out interface{}) bool {
	body, err := c.GetRawData()
	if err != nil {
		s.errors.Respond(c, errors.NewFieldValidationError("body", "Request body could not be read"))
		return false
	}
	if err := s.deps.Schemas.Validate(schema, body); err != nil {
		s.errors.Respond(c, err)
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.errors.Respond(c, errors.NewFieldValidationError("body", "Request body must be valid JSON"))
		return false
	}
	return true
}

func (s *Server) respond(c *gin.Context, status int, payload interface{}, err error) {
	if err != nil {
		s.errors.Respond(c, err)
		return
	}
	c.JSON(status, payload)
}

// ==========================
// Ops
// ==========================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": s.deps.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	status, ok := database.CheckAll(c.Request.Context(), 2*time.Second, s.deps.Checkers...)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": status})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": status})
}
