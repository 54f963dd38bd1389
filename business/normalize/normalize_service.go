package normalize

import (
	"context"
	"fmt"
	"time"

	"salesWarehouse/domain"
	"salesWarehouse/pkg/logger"
	"salesWarehouse/pkg/metrics"
)

// StagingRepository contract interface
type StagingRepository interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]domain.SalesStaging, error)
}

// OLTPRepository writes one normalized batch atomically: entity upserts and
// the processed-flag update either all commit or all roll back.
type OLTPRepository interface {
	SaveNormalizedBatch(ctx context.Context, batch NormalizedBatch) error
}

type normalizeService struct {
	stagingRepo StagingRepository
	oltpRepo    OLTPRepository
	batchSize   int
}

func NewNormalizeService(stagingRepo StagingRepository, oltpRepo OLTPRepository, batchSize int) *normalizeService {
	return &normalizeService{
		stagingRepo: stagingRepo,
		oltpRepo:    oltpRepo,
		batchSize:   batchSize,
	}
}

// ProcessBatch normalizes up to one batch of unprocessed staging rows and
// returns the number of rows consumed. 0 means the staging table is drained.
func (s *normalizeService) ProcessBatch(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	start := time.Now()

	rows, err := s.stagingRepo.FetchUnprocessed(ctx, s.batchSize)
	if err != nil {
		logger.Error("Failed to fetch unprocessed staging rows", err)
		return 0, err
	}

	if len(rows) == 0 {
		logger.Info("No unprocessed rows in staging")
		return 0, nil
	}

	batch := buildNormalizedBatch(rows)

	if err := s.oltpRepo.SaveNormalizedBatch(ctx, batch); err != nil {
		logger.Error("Failed to save normalized batch, batch rolled back",
			"rows", len(rows),
			"first_staging_id", rows[0].ID,
			"last_staging_id", rows[len(rows)-1].ID,
			"error", err,
		)
		return 0, fmt.Errorf("failed to save normalized batch: %w", err)
	}

	metrics.EtlRowsProcessed.WithLabelValues("normalize").Add(float64(len(rows)))
	metrics.EtlBatchesProcessed.WithLabelValues("normalize").Inc()

	logger.Info("Normalized staging batch",
		"rows", len(rows),
		"users", len(batch.Users),
		"categories", len(batch.Categories),
		"products", len(batch.Products),
		"orders", len(batch.Orders),
		"order_items", len(batch.OrderItems),
		"duration", time.Since(start).String(),
	)

	return len(rows), nil
}
