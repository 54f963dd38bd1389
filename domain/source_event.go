package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SalesEvent is one raw sales event document from the Mongo collection.
// Every field except _id is optional in the source; pointers keep
// "field absent" distinguishable from a zero value so the extractor can
// apply the staging defaults.
type SalesEvent struct {
	ID           primitive.ObjectID `bson:"_id"`
	EventTime    *time.Time         `bson:"event_time,omitempty"`
	OrderID      *int64             `bson:"order_id,omitempty"`
	ProductID    *int64             `bson:"product_id,omitempty"`
	CategoryID   *int64             `bson:"category_id,omitempty"`
	CategoryCode *string            `bson:"category_code,omitempty"`
	Brand        *string            `bson:"brand,omitempty"`
	Price        *float64           `bson:"price,omitempty"`
	UserID       *int64             `bson:"user_id,omitempty"`
}
