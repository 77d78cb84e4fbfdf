package menu

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/domain/validation"
)

// Item is a dish or drink offered by the restaurant. Items are immutable
// once created.
type Item struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Category    string
	IsAvailable bool
	CreatedAt   time.Time
}

// Repository defines persistence operations for the menu.
type Repository interface {
	// Create stores item, assigning ID and CreatedAt.
	Create(ctx context.Context, item *Item) error
	List(ctx context.Context) ([]Item, error)
}

// CreateItemRequest holds the input for adding a menu item. A nil
// IsAvailable means the item is available.
type CreateItemRequest struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	IsAvailable *bool
}

// Validate checks the request constraints and reports every violation.
func (r CreateItemRequest) Validate() error {
	var v validation.Error
	if strings.TrimSpace(r.Name) == "" {
		v.Add("name", "must not be empty")
	}
	v.Amount("price", r.Price)
	return v.Err()
}

// Service manages the menu.
type Service struct {
	items   Repository
	created metric.Int64Counter
}

// NewService creates a menu Service.
func NewService(items Repository, mp metric.MeterProvider) *Service {
	created, err := mp.Meter("github.com/xenking/restaurant-pos/internal/domain/menu").
		Int64Counter("pos.menu.items.created",
			metric.WithDescription("Number of menu items created"),
			metric.WithUnit("{item}"),
		)
	if err != nil {
		created = noop.Int64Counter{}
	}
	return &Service{items: items, created: created}
}

// Create validates and stores a new menu item.
func (s *Service) Create(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := &Item{
		Name:        req.Name,
		Price:       req.Price,
		Category:    req.Category,
		IsAvailable: available,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, errors.Wrap(err, "create menu item")
	}
	s.created.Add(ctx, 1)

	zctx.From(ctx).Info("Menu item created",
		zap.String("item_id", item.ID),
		zap.String("name", item.Name),
	)
	return item, nil
}

// List returns the whole menu.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	return items, nil
}
