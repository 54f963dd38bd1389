package postgres

import (
	"context"
	"fmt"

	"salesWarehouse/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertChunkSize = 1000

type StagingRepository struct {
	DB *gorm.DB
}

func NewStagingRepository(db *gorm.DB) *StagingRepository {
	return &StagingRepository{DB: db}
}

// BulkInsertIgnore inserts staging rows, silently skipping rows whose
// mongo_id already exists. A replayed batch after a crash therefore
// produces no duplicates.
func (r *StagingRepository) BulkInsertIgnore(ctx context.Context, rows []domain.SalesStaging) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "mongo_id"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, insertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to bulk insert staging rows: %w", err)
	}

	return nil
}

// FetchUnprocessed returns up to limit staging rows not yet normalized,
// oldest staging id first.
func (r *StagingRepository) FetchUnprocessed(ctx context.Context, limit int) ([]domain.SalesStaging, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.SalesStaging
	err := r.DB.WithContext(ctx).
		Where("processed = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unprocessed staging rows: %w", err)
	}

	return rows, nil
}
