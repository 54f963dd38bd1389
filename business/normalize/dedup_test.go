//go:build !integration

package normalize

import (
	"testing"
	"time"

	"salesWarehouse/domain"
)

func stagingRow(id uint64, orderID, productID, categoryID int64, code, brand string, price float64, userID int64, eventTime time.Time) domain.SalesStaging {
	return domain.SalesStaging{
		ID:           id,
		OrderID:      orderID,
		ProductID:    productID,
		CategoryID:   categoryID,
		CategoryCode: code,
		Brand:        brand,
		Price:        price,
		UserID:       userID,
		EventTime:    eventTime,
	}
}

func TestCategoryDedupPrefersKnownCode(t *testing.T) {
	now := time.Now()
	rows := []domain.SalesStaging{
		stagingRow(1, 9, 7, 5, "unknown", "Acme", 10, 100, now),
		stagingRow(2, 9, 7, 5, "electronics.audio.headphones", "Acme", 10, 100, now),
	}

	// both input orders must yield the same result
	for name, input := range map[string][]domain.SalesStaging{
		"forward":  rows,
		"reversed": {rows[1], rows[0]},
	} {
		batch := buildNormalizedBatch(input)

		if len(batch.Categories) != 1 {
			t.Fatalf("%s: expected 1 category, got %d", name, len(batch.Categories))
		}
		if batch.Categories[0].CategoryCode != "electronics.audio.headphones" {
			t.Errorf("%s: expected known code to win, got %q", name, batch.Categories[0].CategoryCode)
		}
	}
}

func TestProductDedupPrefersKnownBrand(t *testing.T) {
	now := time.Now()
	rows := []domain.SalesStaging{
		stagingRow(1, 9, 7, 5, "a.b", "unknown", 10, 100, now),
		stagingRow(2, 9, 7, 5, "a.b", "Acme", 10, 100, now),
	}

	for name, input := range map[string][]domain.SalesStaging{
		"forward":  rows,
		"reversed": {rows[1], rows[0]},
	} {
		batch := buildNormalizedBatch(input)

		if len(batch.Products) != 1 {
			t.Fatalf("%s: expected 1 product, got %d", name, len(batch.Products))
		}
		if batch.Products[0].Brand != "Acme" {
			t.Errorf("%s: expected known brand to win, got %q", name, batch.Products[0].Brand)
		}
	}
}

func TestOrderDedupKeepsLatestEventTime(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)
	rows := []domain.SalesStaging{
		stagingRow(1, 9, 7, 5, "a.b", "Acme", 10, 100, t1),
		stagingRow(2, 9, 8, 5, "a.b", "Acme", 20, 100, t2),
	}

	for name, input := range map[string][]domain.SalesStaging{
		"forward":  rows,
		"reversed": {rows[1], rows[0]},
	} {
		batch := buildNormalizedBatch(input)

		if len(batch.Orders) != 1 {
			t.Fatalf("%s: expected 1 order, got %d", name, len(batch.Orders))
		}
		if !batch.Orders[0].EventTime.Equal(t2) {
			t.Errorf("%s: expected latest event time %v, got %v", name, t2, batch.Orders[0].EventTime)
		}
	}
}

func TestOrderItemsUseSetSemantics(t *testing.T) {
	now := time.Now()
	rows := []domain.SalesStaging{
		stagingRow(1, 9, 7, 5, "a.b", "Acme", 10, 100, now),
		stagingRow(2, 9, 7, 5, "a.b", "Acme", 10, 100, now), // identical tuple
		stagingRow(3, 9, 7, 5, "a.b", "Acme", 12.5, 100, now),
	}

	batch := buildNormalizedBatch(rows)

	if len(batch.OrderItems) != 2 {
		t.Fatalf("expected 2 distinct order items, got %d", len(batch.OrderItems))
	}
	if batch.OrderItems[0].Price != 10 || batch.OrderItems[1].Price != 12.5 {
		t.Errorf("unexpected order items: %+v", batch.OrderItems)
	}
}

func TestDedupIsIdempotent(t *testing.T) {
	now := time.Now()
	rows := []domain.SalesStaging{
		stagingRow(1, 9, 7, 5, "unknown", "unknown", 10, 100, now),
		stagingRow(2, 9, 7, 5, "a.b.c", "Acme", 10, 100, now),
		stagingRow(3, 9, 7, 5, "a.b.c", "Acme", 10, 100, now), // full repeat
	}

	batch := buildNormalizedBatch(rows)

	if len(batch.Users) != 1 || len(batch.Categories) != 1 || len(batch.Products) != 1 ||
		len(batch.Orders) != 1 || len(batch.OrderItems) != 1 {
		t.Errorf("repeated rows changed the deduplicated sets: %+v", batch)
	}
	if len(batch.StagingIDs) != 3 {
		t.Errorf("expected all 3 staging ids retained, got %v", batch.StagingIDs)
	}
}

func TestBatchCollectsAllStagingIDs(t *testing.T) {
	now := time.Now()
	rows := []domain.SalesStaging{
		stagingRow(11, 1, 7, 5, "a", "Acme", 10, 100, now),
		stagingRow(12, 2, 8, 6, "b", "Bolt", 20, 200, now),
	}

	batch := buildNormalizedBatch(rows)

	if len(batch.StagingIDs) != 2 || batch.StagingIDs[0] != 11 || batch.StagingIDs[1] != 12 {
		t.Errorf("unexpected staging ids: %v", batch.StagingIDs)
	}
	if len(batch.Users) != 2 || len(batch.Orders) != 2 {
		t.Errorf("expected 2 users and 2 orders, got %d and %d", len(batch.Users), len(batch.Orders))
	}
}
