package storage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that open the circuit.
	MaxFailures uint32 `default:"5"`
	// OpenTimeout is how long the circuit stays open before a probe request
	// is let through.
	OpenTimeout time.Duration `default:"30s"`
}

// Guarded wraps a Backend so that every repository call passes through a
// circuit breaker. While the circuit is open calls fail immediately with
// ErrUnavailable instead of waiting for the driver to time out.
type Guarded struct {
	Backend
	cb *gobreaker.CircuitBreaker
}

// Guard wraps b with a circuit breaker.
func Guard(b Backend, cfg BreakerConfig, lg *zap.Logger) *Guarded {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        b.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lg.Warn("Store circuit state changed",
				zap.String("store", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: isSuccessful,
	})
	return &Guarded{Backend: b, cb: cb}
}

// isSuccessful reports whether err leaves the store health untouched. Only
// connectivity failures count against the circuit: domain outcomes, mapping
// and constraint errors are answers from a working store.
func isSuccessful(err error) bool {
	return !errors.Is(err, ErrUnavailable) && !errors.Is(err, context.DeadlineExceeded)
}

// State returns the circuit state: "closed", "half-open" or "open".
func (g *Guarded) State() string {
	return g.cb.State().String()
}

func (g *Guarded) Menu() menu.Repository {
	return guardedMenu{cb: g.cb, next: g.Backend.Menu()}
}

func (g *Guarded) Orders() order.Repository {
	return guardedOrders{cb: g.cb, next: g.Backend.Orders()}
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	v, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, WrapUnavailable(err)
		}
		return zero, err
	}
	return v.(T), nil
}

type guardedMenu struct {
	cb   *gobreaker.CircuitBreaker
	next menu.Repository
}

func (r guardedMenu) Create(ctx context.Context, item *menu.Item) error {
	_, err := execute(r.cb, func() (struct{}, error) {
		return struct{}{}, r.next.Create(ctx, item)
	})
	return err
}

func (r guardedMenu) List(ctx context.Context) ([]menu.Item, error) {
	return execute(r.cb, func() ([]menu.Item, error) {
		return r.next.List(ctx)
	})
}

type guardedOrders struct {
	cb   *gobreaker.CircuitBreaker
	next order.Repository
}

func (r guardedOrders) Create(ctx context.Context, o *order.Order) error {
	_, err := execute(r.cb, func() (struct{}, error) {
		return struct{}{}, r.next.Create(ctx, o)
	})
	return err
}

func (r guardedOrders) Get(ctx context.Context, id string) (*order.Order, error) {
	return execute(r.cb, func() (*order.Order, error) {
		return r.next.Get(ctx, id)
	})
}

func (r guardedOrders) List(ctx context.Context) ([]order.Order, error) {
	return execute(r.cb, func() ([]order.Order, error) {
		return r.next.List(ctx)
	})
}
