package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/restaurant-pos/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository on the orders table.
type OrderRepository struct {
	s *Store
}

const selectOrder = `SELECT id::text, table_number, items, subtotal, tax, total, status, payment_method, created_at FROM orders`

// Create inserts o. The line items are serialized into the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.s.ensureSchema(ctx); err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return errors.Wrap(err, "generate id")
	}

	row := r.s.pool.QueryRow(ctx,
		`INSERT INTO orders (id, table_number, items, subtotal, tax, total, status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at`,
		id, nullable(o.TableNumber), encodeItems(o.Items),
		o.Subtotal, o.Tax, o.Total, string(o.Status), nullable(o.PaymentMethod),
	)
	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		return classify(errors.Wrap(err, "insert order"))
	}
	return nil
}

// Get fetches an order by its UUID.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(order.ErrInvalidID, "%q", id)
	}
	if err := r.s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := r.s.pool.Query(ctx, selectOrder+` WHERE id = $1`, uid)
	if err != nil {
		return nil, classify(errors.Wrapf(err, "query order %s", id))
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(order.ErrNotFound, "%s", id)
		}
		return nil, classify(errors.Wrapf(err, "read order %s", id))
	}
	return &o, nil
}

// List returns all orders in insertion order.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	if err := r.s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := r.s.pool.Query(ctx, selectOrder+` ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(errors.Wrap(err, "query orders"))
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, classify(errors.Wrap(err, "read orders"))
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		tableNumber   *string
		paymentMethod *string
		items         []byte
		status        string
	)
	if err := row.Scan(&o.ID, &tableNumber, &items, &o.Subtotal, &o.Tax, &o.Total,
		&status, &paymentMethod, &o.CreatedAt); err != nil {
		return order.Order{}, err
	}

	decoded, err := decodeItems(items)
	if err != nil {
		return order.Order{}, errors.Wrapf(err, "order %s", o.ID)
	}
	o.Items = decoded
	o.TableNumber = deref(tableNumber)
	o.PaymentMethod = deref(paymentMethod)
	o.Status = order.Status(status)
	return o, nil
}
