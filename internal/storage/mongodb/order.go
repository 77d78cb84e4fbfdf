package mongodb

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/restaurant-pos/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository on the order collection.
type OrderRepository struct {
	coll *mongo.Collection
}

// Create inserts o and fills its ID and CreatedAt.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	o.CreatedAt = now()
	doc, err := newOrderDoc(o)
	if err != nil {
		return errors.Wrap(err, "map order")
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return classify(errors.Wrap(err, "insert order"))
	}
	o.ID = doc.ID.Hex()
	return nil
}

// Get fetches an order by its hex ObjectID.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrapf(order.ErrInvalidID, "%q", id)
	}

	var doc orderDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(order.ErrNotFound, "%s", id)
		}
		return nil, classify(errors.Wrapf(err, "find order %s", id))
	}
	return doc.toDomain()
}

// List returns all orders in insertion order.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify(errors.Wrap(err, "find orders"))
	}

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(errors.Wrap(err, "read orders"))
	}

	orders := make([]order.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}
