package domain

import "time"

// CREATE TABLE sales_olap.dim_users (
//     dim_user_id  BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     user_id      BIGINT NOT NULL UNIQUE,
//     user_name    TEXT
// );

type DimUser struct {
	DimUserID uint64  `gorm:"column:dim_user_id;primaryKey;autoIncrement"`
	UserID    int64   `gorm:"column:user_id;uniqueIndex;not null"`
	UserName  *string `gorm:"column:user_name;type:text"`
}

func (DimUser) TableName() string {
	return "sales_olap.dim_users"
}

// CREATE TABLE sales_olap.dim_products (
//     dim_product_id    BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     product_id        BIGINT NOT NULL UNIQUE,
//     brand             TEXT,
//     category_id       BIGINT,
//     main_category     TEXT,
//     sub_category      TEXT,
//     sub_sub_category  TEXT
// );

type DimProduct struct {
	DimProductID   uint64 `gorm:"column:dim_product_id;primaryKey;autoIncrement"`
	ProductID      int64  `gorm:"column:product_id;uniqueIndex;not null"`
	Brand          string `gorm:"column:brand;type:text"`
	CategoryID     int64  `gorm:"column:category_id"`
	MainCategory   string `gorm:"column:main_category;type:text"`
	SubCategory    string `gorm:"column:sub_category;type:text"`
	SubSubCategory string `gorm:"column:sub_sub_category;type:text"`
}

func (DimProduct) TableName() string {
	return "sales_olap.dim_products"
}

// CREATE TABLE sales_olap.dim_date (
//     date_id   BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     date_val  DATE NOT NULL,
//     year      INT,
//     month     INT,
//     day       INT,
//     hour      INT NOT NULL,
//     UNIQUE (date_val, hour)
// );

// DimDate rows are created on first reference, one per (date, hour).
type DimDate struct {
	DateID  uint64    `gorm:"column:date_id;primaryKey;autoIncrement"`
	DateVal time.Time `gorm:"column:date_val;type:date;uniqueIndex:idx_dim_date_val_hour;not null"`
	Year    int       `gorm:"column:year"`
	Month   int       `gorm:"column:month"`
	Day     int       `gorm:"column:day"`
	Hour    int       `gorm:"column:hour;uniqueIndex:idx_dim_date_val_hour;not null"`
}

func (DimDate) TableName() string {
	return "sales_olap.dim_date"
}

// CREATE TABLE sales_olap.fact_sales (
//     id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     date_id         BIGINT REFERENCES sales_olap.dim_date (date_id),
//     dim_user_id     BIGINT REFERENCES sales_olap.dim_users (dim_user_id),
//     dim_product_id  BIGINT REFERENCES sales_olap.dim_products (dim_product_id),
//     order_id        BIGINT,
//     price           NUMERIC,
//     UNIQUE (order_id, dim_product_id)
// );

type FactSale struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	DateID       uint64  `gorm:"column:date_id"`
	DimUserID    uint64  `gorm:"column:dim_user_id"`
	DimProductID uint64  `gorm:"column:dim_product_id;uniqueIndex:idx_fact_sales_order_product"`
	OrderID      int64   `gorm:"column:order_id;uniqueIndex:idx_fact_sales_order_product"`
	Price        float64 `gorm:"column:price;type:numeric"`
}

func (FactSale) TableName() string {
	return "sales_olap.fact_sales"
}

// ValidationReport is the result of the staging-vs-fact consistency check.
type ValidationReport struct {
	StagingOrderCount int64 `json:"staging_order_count"`
	FactOrderCount    int64 `json:"fact_order_count"`
	Match             bool  `json:"match"`
}
