package postgres

import (
	"context"
	"fmt"

	"salesWarehouse/business/normalize"
	"salesWarehouse/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OLTPRepository struct {
	DB *gorm.DB
}

func NewOLTPRepository(db *gorm.DB) *OLTPRepository {
	return &OLTPRepository{DB: db}
}

// SaveNormalizedBatch writes one deduplicated batch and marks its staging
// rows processed in a single transaction. If anything fails the whole batch
// rolls back and no staging row is marked, so the batch can be retried; the
// conflict-tolerant upserts make that retry idempotent.
func (r *OLTPRepository) SaveNormalizedBatch(ctx context.Context, batch normalize.NormalizedBatch) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(batch.Users) > 0 {
			// existence only; user_name is enriched elsewhere
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).CreateInBatches(batch.Users, insertChunkSize).Error
			if err != nil {
				return fmt.Errorf("failed to upsert users: %w", err)
			}
		}

		if len(batch.Categories) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "category_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"category_code"}),
			}).CreateInBatches(batch.Categories, insertChunkSize).Error
			if err != nil {
				return fmt.Errorf("failed to upsert categories: %w", err)
			}
		}

		if len(batch.Products) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"brand", "category_id"}),
			}).CreateInBatches(batch.Products, insertChunkSize).Error
			if err != nil {
				return fmt.Errorf("failed to upsert products: %w", err)
			}
		}

		if len(batch.Orders) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_id"}},
				DoNothing: true,
			}).CreateInBatches(batch.Orders, insertChunkSize).Error
			if err != nil {
				return fmt.Errorf("failed to upsert orders: %w", err)
			}
		}

		if len(batch.OrderItems) > 0 {
			err := tx.CreateInBatches(batch.OrderItems, insertChunkSize).Error
			if err != nil {
				return fmt.Errorf("failed to insert order items: %w", err)
			}
		}

		err := tx.Model(&domain.SalesStaging{}).
			Where("id IN ?", batch.StagingIDs).
			Update("processed", true).Error
		if err != nil {
			return fmt.Errorf("failed to mark staging rows processed: %w", err)
		}

		return nil
	})
}

// FetchUsersPage pages through normalized users for the dimension load.
func (r *OLTPRepository) FetchUsersPage(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var users []domain.User
	err := r.DB.WithContext(ctx).
		Order("user_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users page: %w", err)
	}

	return users, nil
}

// FetchProductsPage pages through products joined with their category path.
func (r *OLTPRepository) FetchProductsPage(ctx context.Context, limit, offset int) ([]domain.ProductWithCategory, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var products []domain.ProductWithCategory
	err := r.DB.WithContext(ctx).
		Table("sales_oltp.products AS p").
		Select("p.product_id, p.brand, c.category_id, c.category_code").
		Joins("JOIN sales_oltp.categories c ON p.category_id = c.category_id").
		Order("p.product_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products page: %w", err)
	}

	return products, nil
}

// FetchOrderLines returns up to limit order items joined with their order,
// for orders strictly beyond afterOrderID, in ascending order id.
func (r *OLTPRepository) FetchOrderLines(ctx context.Context, afterOrderID int64, limit int) ([]domain.OrderLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var lines []domain.OrderLine
	err := r.DB.WithContext(ctx).
		Table("sales_oltp.orders AS o").
		Select("o.order_id, o.user_id, o.event_time, oi.product_id, oi.price").
		Joins("JOIN sales_oltp.order_items oi ON o.order_id = oi.order_id").
		Where("o.order_id > ?", afterOrderID).
		Order("o.order_id ASC").
		Limit(limit).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order lines: %w", err)
	}

	return lines, nil
}
