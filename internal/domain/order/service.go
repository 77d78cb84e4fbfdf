package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/domain/validation"
)

const meterName = "github.com/xenking/restaurant-pos/internal/domain/order"

// PlaceOrderRequest holds the client-controlled part of a new order.
// Monetary totals are deliberately absent: they are always recomputed.
type PlaceOrderRequest struct {
	TableNumber   string
	Items         []LineItem
	Status        Status
	PaymentMethod string
}

// Validate checks the request constraints and reports every violation.
func (r PlaceOrderRequest) Validate() error {
	var v validation.Error

	if len(r.Items) == 0 {
		v.Add("items", "must contain at least one item")
	}
	for i, it := range r.Items {
		field := validation.Index("items", i)
		if strings.TrimSpace(it.Name) == "" {
			v.Add(field+".name", "must not be empty")
		}
		counted := it.Quantity >= 1
		if !counted {
			v.Add(field+".quantity", "must be at least 1")
		}
		priced := v.Amount(field+".unit_price", it.UnitPrice)
		if counted && priced && it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).GreaterThan(validation.MaxAmount) {
			v.Addf(field, "line total must not exceed %s", FormatMoney(validation.MaxAmount))
		}
	}
	// Totals are only computed once every line is known to be bounded.
	if len(r.Items) > 0 && v.Empty() {
		if ComputeTotals(r.Items).Total.GreaterThan(validation.MaxAmount) {
			v.Addf("items", "order total must not exceed %s", FormatMoney(validation.MaxAmount))
		}
	}
	if r.Status != "" && !r.Status.Valid() {
		v.Addf("status", "must be one of %s, %s, %s", StatusOpen, StatusPaid, StatusVoid)
	}

	return v.Err()
}

// Receipt is a rendered receipt together with the order it was built from.
type Receipt struct {
	Text  string
	Order *Order
}

// Service encapsulates order placement and retrieval.
type Service struct {
	orders    Repository
	publisher Publisher
	created   metric.Int64Counter
}

// NewService creates an order Service. A nil publisher disables order
// announcements.
func NewService(orders Repository, publisher Publisher, mp metric.MeterProvider) *Service {
	created, err := mp.Meter(meterName).Int64Counter("pos.orders.created",
		metric.WithDescription("Number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		created = noop.Int64Counter{}
	}
	return &Service{
		orders:    orders,
		publisher: publisher,
		created:   created,
	}
}

// PlaceOrder validates the request, computes totals from the line items,
// persists the order and announces it. Announcement failures are logged and
// do not fail the call since the order is already stored.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusOpen
	}

	totals := ComputeTotals(req.Items)
	o := &Order{
		TableNumber:   req.TableNumber,
		Items:         req.Items,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Status:        status,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(o.Status))))

	lg := zctx.From(ctx)
	lg.Info("Order created",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.String("total", FormatMoney(o.Total)),
	)

	if s.publisher != nil {
		if err := s.publisher.OrderCreated(ctx, o); err != nil {
			lg.Warn("Publish order event", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	return o, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// List returns every stored order.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Receipt fetches an order and renders its receipt.
func (s *Service) Receipt(ctx context.Context, id string) (*Receipt, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Receipt{Text: RenderReceipt(o), Order: o}, nil
}
