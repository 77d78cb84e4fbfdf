package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository on the menu_items table.
type MenuRepository struct {
	s *Store
}

// Create inserts item. ID, CreatedAt and the stored price are read back
// from the row.
func (r *MenuRepository) Create(ctx context.Context, item *menu.Item) error {
	if err := r.s.ensureSchema(ctx); err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return errors.Wrap(err, "generate id")
	}

	row := r.s.pool.QueryRow(ctx,
		`INSERT INTO menu_items (id, name, price, category, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, price, created_at`,
		id, item.Name, item.Price, nullable(item.Category), item.IsAvailable,
	)
	if err := row.Scan(&item.ID, &item.Price, &item.CreatedAt); err != nil {
		return classify(errors.Wrap(err, "insert menu item"))
	}
	return nil
}

// List returns all menu items in insertion order.
func (r *MenuRepository) List(ctx context.Context) ([]menu.Item, error) {
	if err := r.s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := r.s.pool.Query(ctx,
		`SELECT id::text, name, price, category, is_available, created_at
		FROM menu_items ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(errors.Wrap(err, "query menu items"))
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (menu.Item, error) {
		var (
			item     menu.Item
			category *string
		)
		err := row.Scan(&item.ID, &item.Name, &item.Price, &category, &item.IsAvailable, &item.CreatedAt)
		item.Category = deref(category)
		return item, err
	})
	if err != nil {
		return nil, classify(errors.Wrap(err, "read menu items"))
	}
	return items, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
