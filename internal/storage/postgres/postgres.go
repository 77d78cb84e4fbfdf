// Package postgres implements the document store on PostgreSQL.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/restaurant-pos/db"
	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
	"github.com/xenking/restaurant-pos/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

// Store is a storage.Backend over a PostgreSQL database. The embedded schema
// is applied before the first data operation; a failed attempt is retried on
// the next one.
type Store struct {
	pool *pgxpool.Pool

	mu      sync.Mutex
	applied bool
}

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns. No connection is made until the pool is used.
func NewPool(ctx context.Context, databaseURL string, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	if connectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = connectTimeout
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	return pool, nil
}

// Open creates a Store for databaseURL.
func Open(ctx context.Context, databaseURL string, connectTimeout time.Duration) (*Store, error) {
	pool, err := NewPool(ctx, databaseURL, connectTimeout)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Database() string { return s.pool.Config().ConnConfig.Database }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify(errors.Wrap(err, "ping"))
	}
	return nil
}

// Collections lists the tables of the current schema.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() ORDER BY table_name`)
	if err != nil {
		return nil, classify(errors.Wrap(err, "list tables"))
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, classify(errors.Wrap(err, "read tables"))
	}
	return names, nil
}

func (s *Store) Menu() menu.Repository { return &MenuRepository{s: s} }

func (s *Store) Orders() order.Repository { return &OrderRepository{s: s} }

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// ensureSchema applies db.Schema once per Store.
func (s *Store) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied {
		return nil
	}
	if _, err := s.pool.Exec(ctx, db.Schema); err != nil {
		return classify(errors.Wrap(err, "apply schema"))
	}
	s.applied = true
	return nil
}

// classify marks connectivity failures as storage.ErrUnavailable.
func classify(err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return storage.WrapUnavailable(err)
	}
	return err
}
