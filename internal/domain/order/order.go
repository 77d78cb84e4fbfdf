package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no order exists for a well-formed identifier.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidID is returned when an identifier is not a well-formed
	// identity token for the backing store.
	ErrInvalidID = errors.New("invalid order id")
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOpen Status = "open"
	StatusPaid Status = "paid"
	StatusVoid Status = "void"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPaid, StatusVoid:
		return true
	default:
		return false
	}
}

// Order is a stored customer order. Subtotal, Tax and Total are always
// computed by the server from Items.
type Order struct {
	ID string
	// TableNumber is a table number or a customer name for pickup.
	TableNumber   string
	Items         []LineItem
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	PaymentMethod string
	CreatedAt     time.Time
}

// LineItem is a snapshot of a menu item at order time. Name and UnitPrice are
// copied so historical orders stay stable when the menu changes.
type LineItem struct {
	ItemID    string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Notes     string
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores o, assigning ID and CreatedAt.
	Create(ctx context.Context, o *Order) error
	// Get returns ErrInvalidID for malformed identifiers and ErrNotFound
	// when the order does not exist.
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
}

// Publisher announces orders to downstream consumers such as kitchen
// displays.
type Publisher interface {
	OrderCreated(ctx context.Context, o *Order) error
}
