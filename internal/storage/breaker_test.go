package storage

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

type stubOrders struct {
	calls int
	err   error
}

func (s *stubOrders) Create(context.Context, *order.Order) error {
	s.calls++
	return s.err
}

func (s *stubOrders) Get(context.Context, string) (*order.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &order.Order{ID: "1"}, nil
}

func (s *stubOrders) List(context.Context) ([]order.Order, error) {
	s.calls++
	return nil, s.err
}

type stubBackend struct {
	orders *stubOrders
}

func (b *stubBackend) Name() string                                  { return "stub" }
func (b *stubBackend) Database() string                              { return "test" }
func (b *stubBackend) Ping(context.Context) error                    { return nil }
func (b *stubBackend) Collections(context.Context) ([]string, error) { return nil, nil }
func (b *stubBackend) Menu() menu.Repository                         { return nil }
func (b *stubBackend) Orders() order.Repository                      { return b.orders }
func (b *stubBackend) Close(context.Context) error                   { return nil }

func newGuarded(orders *stubOrders) *Guarded {
	return Guard(&stubBackend{orders: orders}, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute}, zap.NewNop())
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	orders := &stubOrders{err: WrapUnavailable(errors.New("connection refused"))}
	g := newGuarded(orders)
	repo := g.Orders()
	ctx := context.Background()

	for range 2 {
		_, err := repo.List(ctx)
		require.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", g.State())

	_, err := repo.Get(ctx, "1")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, orders.calls, "open circuit must not reach the store")
}

func TestGuard_DomainErrorsDoNotTrip(t *testing.T) {
	for _, domainErr := range []error{order.ErrNotFound, order.ErrInvalidID} {
		orders := &stubOrders{err: domainErr}
		g := newGuarded(orders)

		for range 5 {
			_, err := g.Orders().Get(context.Background(), "x")
			require.ErrorIs(t, err, domainErr)
		}
		assert.Equal(t, "closed", g.State())
	}
}

func TestGuard_DeadlineTrips(t *testing.T) {
	g := newGuarded(&stubOrders{err: errors.Wrap(context.DeadlineExceeded, "find")})

	for range 2 {
		_, err := g.Orders().List(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, "open", g.State())
}

func TestGuard_NonConnectivityErrorsDoNotTrip(t *testing.T) {
	for _, storeErr := range []error{
		errors.New("convert unit_price: decimal128 overflow"),
		errors.New(`ERROR: numeric field overflow (SQLSTATE 22003)`),
		context.Canceled,
	} {
		orders := &stubOrders{err: storeErr}
		g := newGuarded(orders)

		for range 5 {
			err := g.Orders().Create(context.Background(), &order.Order{})
			require.ErrorIs(t, err, storeErr)
			assert.NotErrorIs(t, err, ErrUnavailable)
		}
		assert.Equal(t, "closed", g.State(), storeErr.Error())
		assert.Equal(t, 5, orders.calls)
	}
}

func TestGuard_PassesResults(t *testing.T) {
	g := newGuarded(&stubOrders{})

	o, err := g.Orders().Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", o.ID)
	require.NoError(t, g.Orders().Create(context.Background(), &order.Order{}))
	assert.Equal(t, "stub", g.Name(), "backend diagnostics pass through")
}

func TestUnavailable(t *testing.T) {
	reason := errors.New("DATABASE_URL is not set")
	u := NewUnavailable(reason, "pos")
	ctx := context.Background()

	assert.ErrorIs(t, u.Ping(ctx), ErrUnavailable)
	assert.ErrorIs(t, u.Menu().Create(ctx, &menu.Item{}), ErrUnavailable)
	_, err := u.Orders().Get(ctx, "1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, reason)
	_, err = u.Menu().List(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "pos", u.Database())
}

func TestWrapUnavailable(t *testing.T) {
	assert.NoError(t, WrapUnavailable(nil))

	cause := errors.New("dial tcp: i/o timeout")
	err := WrapUnavailable(cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, WrapUnavailable(err))
}
