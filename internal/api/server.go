package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"golang.org/x/time/rate"

	"mailproof/internal/api/validator"
	"mailproof/internal/config"
	"mailproof/internal/provider"
	"mailproof/internal/routes"
	"mailproof/internal/services"

	console "mailproof/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *gorm.DB

	verify  *services.VerifyService
	credits *services.CreditService
	lists   *services.EmailListService
	shares  *services.ShareService
}

var log = console.New("API-Server")

// NewServer @title Mailproof API
// @version 1.0
// @description Bulk email verification API.
// @host localhost:8080
// @BasePath /api/v1
func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	verify *services.VerifyService,
	credits *services.CreditService,
	lists *services.EmailListService,
	shares *services.ShareService,
) *Server {
	e := echo.New()

	// Create custom validator
	e.Validator = validator.NewValidator()

	// Configure middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("25M"))

	// Custom error handler
	e.HTTPErrorHandler = customHTTPErrorHandler

	s := &Server{
		echo:    e,
		config:  cfg,
		db:      db,
		verify:  verify,
		credits: credits,
		lists:   lists,
		shares:  shares,
	}

	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	// Create a new GORM integrator
	gormIntegrator := admingorm.NewIntegrator(db)
	// Create a new Echo integrator
	echoIntegrator := adminecho.NewIntegrator(e.Group(""))

	permissionChecker := func(
		request admin.PermissionRequest, ctx interface{},
	) (bool, error) {
		return true, nil
	}

	adminPanel, err := admin.NewPanel(
		gormIntegrator, echoIntegrator, permissionChecker, nil,
	)
	if err != nil {
		err := log.Error("Failed to create admin panel", err)
		if err != nil {
			return nil
		}
	}

	_, err = adminPanel.RegisterApp(
		"Mailproof",
		"Mailproof Admin Panel",
		nil,
	)
	if err != nil {
		err := log.Error("Failed to register admin app", err)
		if err != nil {
			return nil
		}
	}

	routes.SetupAuthRoutes(s.echo, s.db, s.config)

	// Register routes
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// serviceErrorCode maps domain errors onto HTTP status codes
func serviceErrorCode(err error) (int, bool) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden, true
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest, true
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, true
	}

	var provErr *provider.Error
	if errors.As(err, &provErr) {
		return http.StatusBadGateway, true
	}
	return 0, false
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	var (
		code    = http.StatusInternalServerError
		message interface{}
	)

	switch e := err.(type) {
	case *echo.HTTPError:
		code = e.Code
		message = e.Message
	case validator.ValidationErrors:
		code = http.StatusBadRequest
		message = formatValidationErrors(e)
	default:
		if mapped, ok := serviceErrorCode(err); ok {
			code = mapped
			message = err.Error()
		} else {
			message = http.StatusText(code)
		}
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, map[string]interface{}{
				"error": message,
				"code":  code,
				"time":  time.Now().Format(time.RFC3339),
			})
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}

// formatValidationErrors formats validation errors into a map
func formatValidationErrors(errors validator.ValidationErrors) map[string]string {
	errMap := make(map[string]string)
	for _, err := range errors {
		field := err.Field()
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errMap[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errMap[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			errMap[field] = fmt.Sprintf("%s must be at most %s", field, param)
		case "uuid":
			errMap[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "oneof":
			errMap[field] = fmt.Sprintf("%s must be one of [%s]", field, param)
		case "user_role":
			errMap[field] = fmt.Sprintf("%s must be either 'admin' or 'member'", field)
		case "list_status":
			errMap[field] = fmt.Sprintf("%s must be one of: uploading, unverified, processing, verified", field)
		case "access_type":
			errMap[field] = fmt.Sprintf("%s must be either 'read' or 'write'", field)
		case "record_source":
			errMap[field] = fmt.Sprintf("%s must be one of: single, bulk, credit_purchase", field)
		default:
			errMap[field] = fmt.Sprintf("%s failed validation: %s", field, tag)
		}
	}
	return errMap
}
