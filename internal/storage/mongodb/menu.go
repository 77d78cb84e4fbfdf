package mongodb

import (
	"context"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository on the menuitem collection.
type MenuRepository struct {
	coll *mongo.Collection
}

// Create inserts item and fills its ID and CreatedAt.
func (r *MenuRepository) Create(ctx context.Context, item *menu.Item) error {
	item.CreatedAt = now()
	doc, err := newMenuItemDoc(item)
	if err != nil {
		return errors.Wrap(err, "map menu item")
	}
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return classify(errors.Wrap(err, "insert menu item"))
	}
	item.ID = doc.ID.Hex()
	return nil
}

// List returns all menu items in insertion order.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify(errors.Wrap(err, "find menu items"))
	}

	var docs []menuItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(errors.Wrap(err, "read menu items"))
	}

	items := make([]menu.Item, 0, len(docs))
	for _, d := range docs {
		item, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
