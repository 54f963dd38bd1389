package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"salesWarehouse/business/extract"
	"salesWarehouse/business/normalize"
	"salesWarehouse/business/pipeline"
	"salesWarehouse/business/transform"
	"salesWarehouse/business/validation"
	mongoRepo "salesWarehouse/internal/repository/mongodb"
	psqlRepo "salesWarehouse/internal/repository/postgres"
	"salesWarehouse/pkg/config"
	"salesWarehouse/pkg/database/mongodb"
	"salesWarehouse/pkg/database/postgres"
	"salesWarehouse/pkg/logger"
	"salesWarehouse/pkg/metrics"
)

// etl-runner executes one full pipeline run to drain and then the
// staging-vs-fact consistency check, exiting non-zero on any failure.
// A failed run is always safe to re-invoke: every stage resumes from its
// last committed checkpoint.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Sales Warehouse ETL run", "version", cfg.App.Version)

	metrics.Init()

	db, err := postgres.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := postgres.ClosePostgres(db); err != nil {
			logger.Error("Failed to close Postgres connection", "error", err)
		}
	}()

	mongoClient, err := mongodb.NewMongoClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongodb.CloseMongoClient(mongoClient); err != nil {
			logger.Error("Failed to close MongoDB connection", "error", err)
		}
	}()

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

	// A stop signal between batches resumes cleanly on the next run; an
	// in-flight batch rolls back like a crash.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := pipelineService.Run(ctx, nil); err != nil {
		logger.Fatal("Pipeline run failed", "error", err)
	}

	report, err := validationService.ValidateOrderCounts(ctx)
	if err != nil {
		logger.Fatal("Validation check failed",
			"staging_count", report.StagingOrderCount,
			"fact_count", report.FactOrderCount,
			"error", err,
		)
	}

	logger.Info("ETL run finished",
		"staging_count", report.StagingOrderCount,
		"fact_count", report.FactOrderCount,
	)
}
