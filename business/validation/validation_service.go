package validation

import (
	"context"
	"errors"
	"fmt"

	"salesWarehouse/domain"
	"salesWarehouse/pkg/logger"
)

// ErrOrderCountMismatch signals that staging and fact disagree on the set
// of distinct orders, the operational health check for the whole pipeline.
var ErrOrderCountMismatch = errors.New("distinct order_id count mismatch between staging and fact tables")

// ValidationRepository contract interface
type ValidationRepository interface {
	CountDistinctStagingOrders(ctx context.Context) (int64, error)
	CountDistinctFactOrders(ctx context.Context) (int64, error)
}

type validationService struct {
	validationRepo ValidationRepository
}

func NewValidationService(validationRepo ValidationRepository) *validationService {
	return &validationService{
		validationRepo: validationRepo,
	}
}

// ValidateOrderCounts compares COUNT(DISTINCT order_id) between staging and
// fact. The report is always returned; a mismatch additionally yields
// ErrOrderCountMismatch.
func (s *validationService) ValidateOrderCounts(ctx context.Context) (domain.ValidationReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.ValidationReport{}, fmt.Errorf("context error: %w", err)
	}

	stagingCount, err := s.validationRepo.CountDistinctStagingOrders(ctx)
	if err != nil {
		logger.Error("Failed to count staging orders", err)
		return domain.ValidationReport{}, err
	}

	factCount, err := s.validationRepo.CountDistinctFactOrders(ctx)
	if err != nil {
		logger.Error("Failed to count fact orders", err)
		return domain.ValidationReport{}, err
	}

	report := domain.ValidationReport{
		StagingOrderCount: stagingCount,
		FactOrderCount:    factCount,
		Match:             stagingCount == factCount,
	}

	if !report.Match {
		logger.Error("Validation failed",
			"staging_count", stagingCount,
			"fact_count", factCount,
		)
		return report, ErrOrderCountMismatch
	}

	logger.Info("Validation passed, distinct order counts match", "count", stagingCount)
	return report, nil
}
