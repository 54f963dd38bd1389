package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesWarehouse/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckpointRepository struct {
	DB *gorm.DB
}

func NewCheckpointRepository(db *gorm.DB) *CheckpointRepository {
	return &CheckpointRepository{DB: db}
}

// GetLastProcessedID returns the checkpoint for a stream. The boolean is
// false when no checkpoint exists yet (first run).
func (r *CheckpointRepository) GetLastProcessedID(ctx context.Context, stream string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("context error: %w", err)
	}

	var row domain.EtlMetadata
	err := r.DB.WithContext(ctx).First(&row, "table_name = ?", stream).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query etl_metadata for %s: %w", stream, err)
	}

	return row.LastProcessedID, true, nil
}

// SetLastProcessedID upserts the checkpoint row. Checkpoints are only ever
// overwritten, never deleted.
func (r *CheckpointRepository) SetLastProcessedID(ctx context.Context, stream, lastID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row := domain.EtlMetadata{
		StreamName:      stream,
		LastProcessedID: lastID,
		UpdatedAt:       time.Now(),
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "table_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_processed_id", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert etl_metadata for %s: %w", stream, err)
	}

	return nil
}
