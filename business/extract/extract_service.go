package extract

import (
	"context"
	"fmt"
	"time"

	"salesWarehouse/domain"
	"salesWarehouse/pkg/logger"
	"salesWarehouse/pkg/metrics"
)

// EventRepository is the source store boundary: an ordered, filterable scan
// over sales event documents keyed by ObjectID.
type EventRepository interface {
	FetchAfter(ctx context.Context, lastID string, limit int) ([]domain.SalesEvent, error)
}

// StagingRepository contract interface
type StagingRepository interface {
	BulkInsertIgnore(ctx context.Context, rows []domain.SalesStaging) error
}

// CheckpointRepository contract interface
type CheckpointRepository interface {
	GetLastProcessedID(ctx context.Context, stream string) (string, bool, error)
	SetLastProcessedID(ctx context.Context, stream, lastID string) error
}

type extractService struct {
	eventRepo      EventRepository
	stagingRepo    StagingRepository
	checkpointRepo CheckpointRepository
	batchSize      int
}

func NewExtractService(
	eventRepo EventRepository,
	stagingRepo StagingRepository,
	checkpointRepo CheckpointRepository,
	batchSize int,
) *extractService {
	return &extractService{
		eventRepo:      eventRepo,
		stagingRepo:    stagingRepo,
		checkpointRepo: checkpointRepo,
		batchSize:      batchSize,
	}
}

// ExtractBatch pulls one batch of source events beyond the checkpoint,
// stages them with insert-or-ignore semantics, and advances the checkpoint
// to the last event's id. Returns the number of events fetched; 0 signals
// the source is drained. On any error the checkpoint is not advanced, so
// the next run replays the same batch; the unique mongo_id keeps the
// replay duplicate-free.
func (s *extractService) ExtractBatch(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	start := time.Now()

	lastID, found, err := s.checkpointRepo.GetLastProcessedID(ctx, domain.StreamSalesStaging)
	if err != nil {
		logger.Error("Failed to read staging checkpoint", err)
		return 0, err
	}
	if !found {
		logger.Info("No staging checkpoint found, extracting from the beginning")
	}

	events, err := s.eventRepo.FetchAfter(ctx, lastID, s.batchSize)
	if err != nil {
		logger.Error("Failed to fetch source events", err)
		return 0, err
	}

	if len(events) == 0 {
		logger.Info("No more source events to extract")
		return 0, nil
	}

	fetchDone := time.Now()

	rows := make([]domain.SalesStaging, 0, len(events))
	for _, event := range events {
		rows = append(rows, toStagingRow(event))
	}

	if err := s.stagingRepo.BulkInsertIgnore(ctx, rows); err != nil {
		logger.Error("Failed to stage batch, checkpoint not advanced",
			"rows", len(rows),
			"first_id", events[0].ID.Hex(),
			"last_id", events[len(events)-1].ID.Hex(),
			"error", err,
		)
		return 0, err
	}

	newCheckpoint := events[len(events)-1].ID.Hex()
	if err := s.checkpointRepo.SetLastProcessedID(ctx, domain.StreamSalesStaging, newCheckpoint); err != nil {
		logger.Error("Failed to advance staging checkpoint", err)
		return 0, err
	}

	metrics.EtlRowsProcessed.WithLabelValues("extract").Add(float64(len(rows)))
	metrics.EtlBatchesProcessed.WithLabelValues("extract").Inc()

	logger.Info("Extracted source batch",
		"rows", len(rows),
		"first_id", events[0].ID.Hex(),
		"last_id", newCheckpoint,
		"fetch_duration", fetchDone.Sub(start).String(),
		"load_duration", time.Since(fetchDone).String(),
	)

	return len(events), nil
}

// toStagingRow flattens one source document, substituting the documented
// defaults for absent fields so every event yields a loadable row.
func toStagingRow(event domain.SalesEvent) domain.SalesStaging {
	row := domain.SalesStaging{
		MongoID:      event.ID.Hex(),
		EventTime:    domain.EpochTime(),
		OrderID:      domain.UnknownID,
		ProductID:    domain.UnknownID,
		CategoryID:   domain.UnknownID,
		CategoryCode: domain.UnknownLabel,
		Brand:        domain.UnknownLabel,
		Price:        0,
		UserID:       domain.UnknownID,
	}

	if event.EventTime != nil {
		row.EventTime = *event.EventTime
	}
	if event.OrderID != nil {
		row.OrderID = *event.OrderID
	}
	if event.ProductID != nil {
		row.ProductID = *event.ProductID
	}
	if event.CategoryID != nil {
		row.CategoryID = *event.CategoryID
	}
	if event.CategoryCode != nil {
		row.CategoryCode = *event.CategoryCode
	}
	if event.Brand != nil {
		row.Brand = *event.Brand
	}
	if event.Price != nil {
		row.Price = *event.Price
	}
	if event.UserID != nil {
		row.UserID = *event.UserID
	}

	return row
}
