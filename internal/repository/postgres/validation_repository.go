package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ValidationRepository is read-only; it backs the staging-vs-fact
// consistency check and takes no part in pipeline transactions.
type ValidationRepository struct {
	DB *gorm.DB
}

func NewValidationRepository(db *gorm.DB) *ValidationRepository {
	return &ValidationRepository{DB: db}
}

func (r *ValidationRepository) CountDistinctStagingOrders(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Raw("SELECT COUNT(DISTINCT order_id) FROM sales_oltp.sales_staging").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct staging orders: %w", err)
	}

	return count, nil
}

func (r *ValidationRepository) CountDistinctFactOrders(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var count int64
	err := r.DB.WithContext(ctx).
		Raw("SELECT COUNT(DISTINCT order_id) FROM sales_olap.fact_sales").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct fact orders: %w", err)
	}

	return count, nil
}
