package domain

import (
	"time"
)

// CREATE TABLE sales_oltp.etl_metadata (
//     table_name          TEXT PRIMARY KEY,
//     last_processed_id   TEXT NOT NULL,
//     updated_at          TIMESTAMPTZ DEFAULT NOW()
// );

// EtlMetadata is the checkpoint row for one pipeline stream. The value is
// TEXT for both streams: the staging stream stores a Mongo ObjectID hex
// (ObjectIDs sort lexicographically because they are time-prefixed), the
// fact stream stores an order id in decimal.
type EtlMetadata struct {
	StreamName      string    `gorm:"column:table_name;primaryKey"`
	LastProcessedID string    `gorm:"column:last_processed_id;type:text;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (EtlMetadata) TableName() string {
	return "sales_oltp.etl_metadata"
}

// Checkpoint stream names, one per incrementally loaded table.
const (
	StreamSalesStaging = "sales_staging"
	StreamFactSales    = "fact_sales"
)
