package mongodb

import (
	"context"
	"fmt"

	"salesWarehouse/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository struct {
	Collection *mongo.Collection
}

func NewEventRepository(collection *mongo.Collection) *EventRepository {
	return &EventRepository{
		Collection: collection,
	}
}

// FetchAfter returns up to limit events with _id strictly greater than
// lastID, in ascending _id order. An empty lastID means from the beginning.
// The stable sort is what makes checkpoint resume gap-free.
func (r *EventRepository) FetchAfter(ctx context.Context, lastID string, limit int) ([]domain.SalesEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	filter := bson.M{}
	if lastID != "" {
		oid, err := primitive.ObjectIDFromHex(lastID)
		if err != nil {
			return nil, fmt.Errorf("invalid checkpoint object id %q: %w", lastID, err)
		}
		filter = bson.M{"_id": bson.M{"$gt": oid}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []domain.SalesEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode sales events: %w", err)
	}

	return events, nil
}
