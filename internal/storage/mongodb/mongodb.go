// Package mongodb implements the document store on MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/storage"
)

// Collection names.
const (
	MenuCollection  = "menuitem"
	OrderCollection = "order"
)

var _ storage.Backend = (*Store)(nil)

// Store is a storage.Backend over a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open creates a client for uri. The database named in uri takes precedence
// over database. Connecting is lazy: an unreachable server surfaces on the
// first operation, bounded by timeout.
func Open(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.Wrap(err, "parse connection string")
	}
	if cs.Database != "" {
		database = cs.Database
	}
	if database == "" {
		return nil, errors.New("no database name configured")
	}

	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetServerSelectionTimeout(timeout).SetConnectTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Name() string     { return "mongodb" }
func (s *Store) Database() string { return s.db.Name() }

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return classify(errors.Wrap(err, "ping"))
	}
	return nil
}

// Collections returns the collection names of the database.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, classify(errors.Wrap(err, "list collections"))
	}
	return names, nil
}

func (s *Store) Menu() menu.Repository {
	return &MenuRepository{coll: s.db.Collection(MenuCollection)}
}

func (s *Store) Orders() order.Repository {
	return &OrderRepository{coll: s.db.Collection(OrderCollection)}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// classify marks connectivity failures as storage.ErrUnavailable.
func classify(err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return storage.WrapUnavailable(err)
	}
	return err
}

// now returns the current time at BSON datetime precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
