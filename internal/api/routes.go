package api

import (
	"net/http"

	"mailproof/internal/api/controllers"
	"mailproof/internal/api/middleware"
	"mailproof/internal/models"
	"mailproof/internal/services"

	_ "mailproof/docs/swagger"

	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	api := s.echo.Group("/api/v1")
	auth := middleware.NewAuthMiddleware(s.config.JWT.Secret)
	api.Use(auth.Middleware())

	controllers.NewVerifyController(s.verify, s.credits).RegisterRoutes(api)
	controllers.NewListController(s.lists, s.shares).RegisterRoutes(api)

	// Generic read access to the verification ledger
	records := controllers.NewBaseController(services.NewBaseService(s.db, models.VerificationRecord{}))
	records.RegisterRoutes(api, "/verification-records", http.MethodGet)
}
