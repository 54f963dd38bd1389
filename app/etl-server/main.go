package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesWarehouse/app/etl-server/router"
	"salesWarehouse/business/extract"
	"salesWarehouse/business/normalize"
	"salesWarehouse/business/pipeline"
	"salesWarehouse/business/transform"
	"salesWarehouse/business/validation"
	"salesWarehouse/internal/middleware"
	mongoRepo "salesWarehouse/internal/repository/mongodb"
	psqlRepo "salesWarehouse/internal/repository/postgres"
	"salesWarehouse/internal/rest"
	"salesWarehouse/pkg/config"
	"salesWarehouse/pkg/database/mongodb"
	"salesWarehouse/pkg/database/postgres"
	"salesWarehouse/pkg/logger"
	"salesWarehouse/pkg/metrics"
	"salesWarehouse/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Sales Warehouse ETL server", "version", cfg.App.Version)

	metrics.Init()
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	db, err := postgres.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	mongoClient, err := mongodb.NewMongoClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", "error", err)
	}

	logger.Info("Source and target stores connected")

	// Init repo
	eventRepo := mongoRepo.NewEventRepository(mongodb.EventCollection(mongoClient, cfg))
	checkpointRepo := psqlRepo.NewCheckpointRepository(db)
	stagingRepo := psqlRepo.NewStagingRepository(db)
	oltpRepo := psqlRepo.NewOLTPRepository(db)
	warehouseRepo := psqlRepo.NewWarehouseRepository(db)
	validationRepo := psqlRepo.NewValidationRepository(db)

	// Init service
	extractService := extract.NewExtractService(eventRepo, stagingRepo, checkpointRepo, cfg.Pipeline.ExtractBatchSize)
	normalizeService := normalize.NewNormalizeService(stagingRepo, oltpRepo, cfg.Pipeline.NormalizeBatchSize)
	transformService := transform.NewTransformService(oltpRepo, warehouseRepo, checkpointRepo, cfg.Pipeline.FactBatchSize, cfg.Pipeline.DimensionPageSize)
	pipelineService := pipeline.NewPipelineService(extractService, normalizeService, transformService)
	validationService := validation.NewValidationService(validationRepo)

	// Init handler
	pipelineHandler := rest.NewPipelineHandler(pipelineService, validationService)
	healthHandler := rest.NewHealthHandler(cfg.App.Name, cfg.App.Version)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echomiddleware.Recover())

	// Auth middleware
	authRequired := middleware.AuthMiddleware()
	adminOnly := middleware.AdminOnly()

	// Setup routes
	router.SetupOpsRoutes(e, healthHandler)
	api := e.Group("/api/v1")
	router.SetupPipelineRoutes(api, pipelineHandler, authRequired, adminOnly)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := postgres.ClosePostgres(db); err != nil {
		logger.Error("Failed to close Postgres connection", "error", err)
	}

	if err := mongodb.CloseMongoClient(mongoClient); err != nil {
		logger.Error("Failed to close MongoDB connection", "error", err)
	}

	logger.Info("Server stopped")
}
