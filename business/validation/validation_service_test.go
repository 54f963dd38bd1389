//go:build !integration

package validation

import (
	"context"
	"errors"
	"testing"
)

type fakeValidationRepo struct {
	stagingCount int64
	factCount    int64
	stagingErr   error
	factErr      error
}

func (f *fakeValidationRepo) CountDistinctStagingOrders(_ context.Context) (int64, error) {
	return f.stagingCount, f.stagingErr
}

func (f *fakeValidationRepo) CountDistinctFactOrders(_ context.Context) (int64, error) {
	return f.factCount, f.factErr
}

func TestValidateOrderCountsMatch(t *testing.T) {
	service := NewValidationService(&fakeValidationRepo{stagingCount: 42, factCount: 42})

	report, err := service.ValidateOrderCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Match {
		t.Error("expected matching report")
	}
	if report.StagingOrderCount != 42 || report.FactOrderCount != 42 {
		t.Errorf("expected counts 42/42, got %d/%d",
			report.StagingOrderCount, report.FactOrderCount)
	}
}

func TestValidateOrderCountsMismatch(t *testing.T) {
	service := NewValidationService(&fakeValidationRepo{stagingCount: 42, factCount: 40})

	report, err := service.ValidateOrderCounts(context.Background())
	if !errors.Is(err, ErrOrderCountMismatch) {
		t.Fatalf("expected ErrOrderCountMismatch, got %v", err)
	}
	if report.Match {
		t.Error("expected mismatching report")
	}
	if report.StagingOrderCount != 42 || report.FactOrderCount != 40 {
		t.Errorf("expected counts 42/40 in the report, got %d/%d",
			report.StagingOrderCount, report.FactOrderCount)
	}
}

func TestValidateOrderCountsRepositoryError(t *testing.T) {
	repoErr := errors.New("connection reset")
	service := NewValidationService(&fakeValidationRepo{stagingErr: repoErr})

	_, err := service.ValidateOrderCounts(context.Background())
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error propagated, got %v", err)
	}
}
