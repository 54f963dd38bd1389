package domain

import "time"

// CREATE TABLE sales_oltp.orders (
//     order_id    BIGINT PRIMARY KEY,
//     user_id     BIGINT REFERENCES sales_oltp.users (user_id),
//     event_time  TIMESTAMPTZ
// );

type Order struct {
	OrderID   int64     `gorm:"column:order_id;primaryKey"`
	UserID    int64     `gorm:"column:user_id"`
	EventTime time.Time `gorm:"column:event_time"`
}

func (Order) TableName() string {
	return "sales_oltp.orders"
}

// CREATE TABLE sales_oltp.order_items (
//     id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     order_id    BIGINT REFERENCES sales_oltp.orders (order_id),
//     product_id  BIGINT REFERENCES sales_oltp.products (product_id),
//     price       NUMERIC
// );

// OrderItem rows are append-only facts; uniqueness within a batch is
// enforced in memory by the normalizer (exact-tuple set semantics), not by
// a table constraint.
type OrderItem struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	OrderID   int64   `gorm:"column:order_id"`
	ProductID int64   `gorm:"column:product_id"`
	Price     float64 `gorm:"column:price;type:numeric"`
}

func (OrderItem) TableName() string {
	return "sales_oltp.order_items"
}

// OrderLine is one order item joined with its order, as fetched by the
// incremental fact loader.
type OrderLine struct {
	OrderID   int64     `gorm:"column:order_id"`
	UserID    int64     `gorm:"column:user_id"`
	EventTime time.Time `gorm:"column:event_time"`
	ProductID int64     `gorm:"column:product_id"`
	Price     float64   `gorm:"column:price"`
}
