package domain

import (
	"time"
)

// CREATE TABLE sales_oltp.sales_staging (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     mongo_id        TEXT NOT NULL UNIQUE,
//     event_time      TIMESTAMPTZ,
//     order_id        BIGINT,
//     product_id      BIGINT,
//     category_id     BIGINT,
//     category_code   TEXT,
//     brand           TEXT,
//     price           NUMERIC,
//     user_id         BIGINT,
//     processed       BOOLEAN DEFAULT FALSE
// );

type SalesStaging struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	MongoID      string    `gorm:"column:mongo_id;uniqueIndex;not null"`
	EventTime    time.Time `gorm:"column:event_time"`
	OrderID      int64     `gorm:"column:order_id"`
	ProductID    int64     `gorm:"column:product_id"`
	CategoryID   int64     `gorm:"column:category_id"`
	CategoryCode string    `gorm:"column:category_code;type:text"`
	Brand        string    `gorm:"column:brand;type:text"`
	Price        float64   `gorm:"column:price;type:numeric"`
	UserID       int64     `gorm:"column:user_id"`
	Processed    bool      `gorm:"column:processed;default:false"`
}

func (SalesStaging) TableName() string {
	return "sales_oltp.sales_staging"
}

// Defaults applied when a source document is missing a field. Every event
// must map to a loadable staging row, so malformed input is never rejected.
const (
	UnknownID    int64  = -1
	UnknownLabel string = "unknown"
)

// EpochTime is the event_time default for documents without a timestamp.
func EpochTime() time.Time {
	return time.Unix(0, 0).UTC()
}
