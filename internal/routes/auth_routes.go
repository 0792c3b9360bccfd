package routes

import (
	"mailproof/internal/api/middleware"
	"mailproof/internal/config"
	"mailproof/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupAuthRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db)

	base := e.Group("/api/v1")

	// Public auth routes group
	auth := base.Group("/auth")
	users := base.Group("/users")

	// Public routes (no auth required)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected routes (require authentication)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	users.Use(authMiddleware.Middleware())
	users.GET("/me", authHandler.GetMe)
}
