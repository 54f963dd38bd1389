package domain

// CREATE TABLE sales_oltp.categories (
//     category_id     BIGINT PRIMARY KEY,
//     category_code   TEXT NOT NULL
// );

// Category carries the dotted category path ("electronics.audio.headphones")
// as delivered by the source; the transformer derives the hierarchy levels.
type Category struct {
	CategoryID   int64  `gorm:"column:category_id;primaryKey"`
	CategoryCode string `gorm:"column:category_code;type:text;not null"`
}

func (Category) TableName() string {
	return "sales_oltp.categories"
}
