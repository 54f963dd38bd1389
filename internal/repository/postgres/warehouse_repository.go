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

type WarehouseRepository struct {
	DB *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{DB: db}
}

func (r *WarehouseRepository) UpsertDimUsers(ctx context.Context, users []domain.DimUser) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(users) == 0 {
		return nil
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_name"}),
		}).
		CreateInBatches(users, insertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert dim_users: %w", err)
	}

	return nil
}

func (r *WarehouseRepository) UpsertDimProducts(ctx context.Context, products []domain.DimProduct) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"brand", "category_id", "main_category", "sub_category", "sub_sub_category",
			}),
		}).
		CreateInBatches(products, insertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to upsert dim_products: %w", err)
	}

	return nil
}

// InsertDimDate attempts an insert-or-ignore of one dim_date row. When the
// row was inserted the surrogate key is filled in and true is returned; when
// the insert was ignored because the (date_val, hour) row already exists it
// returns false and the caller falls back to FindDateKey.
func (r *WarehouseRepository) InsertDimDate(ctx context.Context, row *domain.DimDate) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date_val"}, {Name: "hour"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert dim_date: %w", res.Error)
	}

	return res.RowsAffected == 1, nil
}

// FindDateKey looks up the surrogate key of an existing dim_date row.
func (r *WarehouseRepository) FindDateKey(ctx context.Context, dateVal time.Time, hour int) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var row domain.DimDate
	err := r.DB.WithContext(ctx).
		Where("date_val = ? AND hour = ?", dateVal.Format("2006-01-02"), hour).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("dim_date row missing for %s hour %d", dateVal.Format("2006-01-02"), hour)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up dim_date: %w", err)
	}

	return row.DateID, nil
}

// LookupUserKeys resolves natural user ids to dim_users surrogate keys.
// Missing users are simply absent from the result map.
func (r *WarehouseRepository) LookupUserKeys(ctx context.Context, userIDs []int64) (map[int64]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	keys := make(map[int64]uint64, len(userIDs))
	if len(userIDs) == 0 {
		return keys, nil
	}

	var rows []domain.DimUser
	err := r.DB.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up dim_users keys: %w", err)
	}

	for _, row := range rows {
		keys[row.UserID] = row.DimUserID
	}

	return keys, nil
}

// LookupProductKeys resolves natural product ids to dim_products surrogate keys.
func (r *WarehouseRepository) LookupProductKeys(ctx context.Context, productIDs []int64) (map[int64]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	keys := make(map[int64]uint64, len(productIDs))
	if len(productIDs) == 0 {
		return keys, nil
	}

	var rows []domain.DimProduct
	err := r.DB.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up dim_products keys: %w", err)
	}

	for _, row := range rows {
		keys[row.ProductID] = row.DimProductID
	}

	return keys, nil
}

// InsertFactsIgnore appends fact rows, skipping (order_id, dim_product_id)
// pairs that already exist from an earlier run.
func (r *WarehouseRepository) InsertFactsIgnore(ctx context.Context, facts []domain.FactSale) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if len(facts) == 0 {
		return nil
	}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(facts, insertChunkSize).Error
	if err != nil {
		return fmt.Errorf("failed to insert fact_sales rows: %w", err)
	}

	return nil
}
