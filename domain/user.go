package domain

import (
	"time"
)

// CREATE TABLE sales_oltp.users (
//     user_id     BIGINT PRIMARY KEY,
//     user_name   TEXT,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

// User is a normalized actor. The normalizer only establishes existence;
// user_name is enriched out-of-band and carried into dim_users.
type User struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	UserName  *string   `gorm:"column:user_name;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (User) TableName() string {
	return "sales_oltp.users"
}
