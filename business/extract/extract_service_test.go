//go:build !integration

package extract

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"salesWarehouse/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeEventRepo struct {
	events []domain.SalesEvent
}

func (f *fakeEventRepo) FetchAfter(_ context.Context, lastID string, limit int) ([]domain.SalesEvent, error) {
	var out []domain.SalesEvent
	for _, event := range f.events {
		if lastID == "" || event.ID.Hex() > lastID {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeStagingRepo mirrors the unique mongo_id constraint of the real table.
type fakeStagingRepo struct {
	byMongoID map[string]domain.SalesStaging
	err       error
}

func newFakeStagingRepo() *fakeStagingRepo {
	return &fakeStagingRepo{byMongoID: make(map[string]domain.SalesStaging)}
}

func (f *fakeStagingRepo) BulkInsertIgnore(_ context.Context, rows []domain.SalesStaging) error {
	if f.err != nil {
		return f.err
	}
	for _, row := range rows {
		if _, exists := f.byMongoID[row.MongoID]; !exists {
			f.byMongoID[row.MongoID] = row
		}
	}
	return nil
}

type fakeCheckpointRepo struct {
	checkpoints map[string]string
	writes      int
}

func newFakeCheckpointRepo() *fakeCheckpointRepo {
	return &fakeCheckpointRepo{checkpoints: make(map[string]string)}
}

func (f *fakeCheckpointRepo) GetLastProcessedID(_ context.Context, stream string) (string, bool, error) {
	id, found := f.checkpoints[stream]
	return id, found, nil
}

func (f *fakeCheckpointRepo) SetLastProcessedID(_ context.Context, stream, lastID string) error {
	f.checkpoints[stream] = lastID
	f.writes++
	return nil
}

// mustOID builds a deterministic ObjectID; later suffixes sort later.
func mustOID(t *testing.T, suffix string) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex("65e0c0000000000000000" + suffix)
	if err != nil {
		t.Fatalf("bad test object id: %v", err)
	}
	return oid
}

func TestExtractBatchStagesEventsAndAdvancesCheckpoint(t *testing.T) {
	eventTime := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	orderID := int64(9)
	productID := int64(7)
	categoryID := int64(5)
	code := "electronics.audio"
	brand := "Acme"
	price := 129.99
	userID := int64(100)

	first := mustOID(t, "001")
	second := mustOID(t, "002")
	events := &fakeEventRepo{events: []domain.SalesEvent{
		{ID: second, EventTime: &eventTime, OrderID: &orderID, ProductID: &productID,
			CategoryID: &categoryID, CategoryCode: &code, Brand: &brand, Price: &price, UserID: &userID},
		{ID: first, EventTime: &eventTime, OrderID: &orderID, ProductID: &productID,
			CategoryID: &categoryID, CategoryCode: &code, Brand: &brand, Price: &price, UserID: &userID},
	}}
	staging := newFakeStagingRepo()
	checkpoints := newFakeCheckpointRepo()
	service := NewExtractService(events, staging, checkpoints, 100)

	n, err := service.ExtractBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events extracted, got %d", n)
	}
	if len(staging.byMongoID) != 2 {
		t.Errorf("expected 2 staging rows, got %d", len(staging.byMongoID))
	}
	if got := checkpoints.checkpoints[domain.StreamSalesStaging]; got != second.Hex() {
		t.Errorf("expected checkpoint %s, got %s", second.Hex(), got)
	}

	row := staging.byMongoID[first.Hex()]
	if row.OrderID != orderID || row.Brand != brand || !row.EventTime.Equal(eventTime) {
		t.Errorf("unexpected staging row: %+v", row)
	}
}

func TestExtractBatchDefaultsMissingFields(t *testing.T) {
	oid := mustOID(t, "001")
	events := &fakeEventRepo{events: []domain.SalesEvent{{ID: oid}}}
	staging := newFakeStagingRepo()
	service := NewExtractService(events, staging, newFakeCheckpointRepo(), 100)

	if _, err := service.ExtractBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := staging.byMongoID[oid.Hex()]
	if row.OrderID != domain.UnknownID || row.ProductID != domain.UnknownID ||
		row.CategoryID != domain.UnknownID || row.UserID != domain.UnknownID {
		t.Errorf("expected sentinel ids on missing fields: %+v", row)
	}
	if row.CategoryCode != domain.UnknownLabel || row.Brand != domain.UnknownLabel {
		t.Errorf("expected unknown labels on missing strings: %+v", row)
	}
	if !row.EventTime.Equal(domain.EpochTime()) {
		t.Errorf("expected epoch event time, got %v", row.EventTime)
	}
	if row.Price != 0 {
		t.Errorf("expected zero price, got %v", row.Price)
	}
}

func TestExtractBatchReturnsZeroWhenSourceDrained(t *testing.T) {
	checkpoints := newFakeCheckpointRepo()
	service := NewExtractService(&fakeEventRepo{}, newFakeStagingRepo(), checkpoints, 100)

	n, err := service.ExtractBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 on drained source, got %d", n)
	}
	if checkpoints.writes != 0 {
		t.Errorf("expected no checkpoint write on empty fetch, got %d", checkpoints.writes)
	}
}

func TestExtractBatchDoesNotAdvanceCheckpointOnInsertError(t *testing.T) {
	events := &fakeEventRepo{events: []domain.SalesEvent{{ID: mustOID(t, "001")}}}
	staging := newFakeStagingRepo()
	staging.err = errors.New("connection lost")
	checkpoints := newFakeCheckpointRepo()
	service := NewExtractService(events, staging, checkpoints, 100)

	if _, err := service.ExtractBatch(context.Background()); err == nil {
		t.Fatal("expected error from failed insert")
	}
	if checkpoints.writes != 0 {
		t.Errorf("expected checkpoint untouched after failed batch, got %d writes", checkpoints.writes)
	}
}

// Replaying with a stale checkpoint must not duplicate staging rows.
func TestExtractBatchReplayIsIdempotent(t *testing.T) {
	events := &fakeEventRepo{events: []domain.SalesEvent{
		{ID: mustOID(t, "001")},
		{ID: mustOID(t, "002")},
	}}
	staging := newFakeStagingRepo()
	checkpoints := newFakeCheckpointRepo()
	service := NewExtractService(events, staging, checkpoints, 100)

	if _, err := service.ExtractBatch(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// simulate a crash before the checkpoint write was durable
	checkpoints.checkpoints[domain.StreamSalesStaging] = ""

	n, err := service.ExtractBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if n != 2 {
		t.Errorf("expected the full batch re-read, got %d", n)
	}
	if len(staging.byMongoID) != 2 {
		t.Errorf("replay created duplicates: %d rows", len(staging.byMongoID))
	}
}
