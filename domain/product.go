package domain

// CREATE TABLE sales_oltp.products (
//     product_id   BIGINT PRIMARY KEY,
//     brand        TEXT,
//     category_id  BIGINT REFERENCES sales_oltp.categories (category_id)
// );

type Product struct {
	ProductID  int64  `gorm:"column:product_id;primaryKey"`
	Brand      string `gorm:"column:brand;type:text"`
	CategoryID int64  `gorm:"column:category_id"`
}

func (Product) TableName() string {
	return "sales_oltp.products"
}

// ProductWithCategory is the join shape the dimension loader reads: one
// product plus its category path.
type ProductWithCategory struct {
	ProductID    int64  `gorm:"column:product_id"`
	Brand        string `gorm:"column:brand"`
	CategoryID   int64  `gorm:"column:category_id"`
	CategoryCode string `gorm:"column:category_code"`
}
