package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mailproof/docs/swagger"
	"mailproof/internal/api"
	"mailproof/internal/config"
	"mailproof/internal/db"
	"mailproof/internal/models"
	"mailproof/internal/provider"
	"mailproof/internal/services"
	"mailproof/internal/store"
	"mailproof/internal/tasks"
	"mailproof/internal/utils/logger"

	"github.com/joho/godotenv"
)

// 🚀 Main function
// @Summary Main function
// @Description Main function
// @title mailproof API
// @version 1.0
// @description API documentation for the mailproof bulk email verification service
// @host api.mailproof.io
// @BasePath /
// @schemes https

// @securityDefinitions.basic BasicAuth
// @in header
// @name Authorization

func main() {

	logger := logger.New("mailproof")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Fatalf("Failed to close database connection: %v", err)
		}
	}()

	dbInstance := db.GetDB()

	// Initialize S3 service
	s3Service, err := services.NewS3Service(
		cfg.Storage.S3.BucketName,
		cfg.Storage.S3.Endpoint,
		cfg.Storage.S3.Region,
		cfg.Storage.S3.AccessKey,
		cfg.Storage.S3.SecretKey,
	)
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	// Register the URL generator
	models.RegisterFileURLGenerator(s3Service)

	// Wire the verification core
	listStore := store.NewLists(dbInstance)
	grantStore := store.NewGrants(dbInstance)
	recordStore := store.NewRecords(dbInstance)

	bouncify := provider.NewBouncify(cfg.Bouncify)
	resolver := services.NewAccessResolver(listStore, grantStore)
	shareService := services.NewShareService(grantStore)
	creditService := services.NewCreditService(recordStore, listStore, bouncify)
	listService := services.NewEmailListService(listStore, shareService)

	taskClient := tasks.NewTaskClient(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	defer taskClient.Close()

	verifyService := services.NewVerifyService(listStore, grantStore, recordStore, resolver, bouncify).
		WithArchive(s3Service).
		WithEnqueuer(taskClient)

	// Initialize task handlers
	taskHandler := tasks.NewTaskHandler(dbInstance, verifyService, taskClient)

	// Initialize task server
	taskServer := tasks.NewServer(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		taskHandler,
		logger,
	)

	// Create a context for task server
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	// Start task server
	go func() {
		if err := taskServer.Start(serverCtx); err != nil {
			logger.Error("Task server error", err)
		}
	}()

	// Initialize task scheduler
	taskScheduler := tasks.NewScheduler(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		logger,
	)

	// Start task scheduler
	go func() {
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler error", err)
		}
	}()

	// Catch-up sweep for lists left processing across the restart
	if err := taskClient.EnqueueSweep(); err != nil {
		logger.Warn("Failed to enqueue catch-up sweep: %v", err)
	}

	// Initialize API server
	apiServer := api.NewServer(cfg, dbInstance, verifyService, creditService, listService, shareService)
	go func() {
		logger.Success("API server started")

		// Swagger documentation
		swagger.SwaggerInfo.Title = "mailproof API Documentation"
		swagger.SwaggerInfo.Description = "API documentation for the mailproof bulk email verification service"
		swagger.SwaggerInfo.Version = "1.0"
		swagger.SwaggerInfo.Host = "api.mailproof.io"
		swagger.SwaggerInfo.Schemes = []string{"https"}

		if err := apiServer.Start(); err != nil {
			logger.Error("API server error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop task scheduler
	taskScheduler.Stop()

	// Stop task server
	serverCancel()
	taskServer.Shutdown()

	// Shutdown API server
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}

	logger.Info("Servers shutdown gracefully")
}
