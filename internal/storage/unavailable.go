package storage

import (
	"context"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

var (
	_ Backend          = (*Unavailable)(nil)
	_ menu.Repository  = unavailableMenu{}
	_ order.Repository = unavailableOrders{}
)

// Unavailable is the store used when no backend could be set up. Every data
// operation fails with ErrUnavailable so the process can still serve
// diagnostics.
type Unavailable struct {
	// Reason explains why no backend is available.
	Reason error
	// DatabaseName is reported by Database.
	DatabaseName string
}

// NewUnavailable returns an Unavailable store that reports reason.
func NewUnavailable(reason error, database string) *Unavailable {
	return &Unavailable{Reason: reason, DatabaseName: database}
}

func (u *Unavailable) err() error {
	if u.Reason == nil {
		return ErrUnavailable
	}
	return WrapUnavailable(u.Reason)
}

func (u *Unavailable) Name() string     { return "unavailable" }
func (u *Unavailable) Database() string { return u.DatabaseName }

func (u *Unavailable) Ping(context.Context) error { return u.err() }

func (u *Unavailable) Collections(context.Context) ([]string, error) { return nil, u.err() }

func (u *Unavailable) Menu() menu.Repository { return unavailableMenu{u} }

func (u *Unavailable) Orders() order.Repository { return unavailableOrders{u} }

func (u *Unavailable) Close(context.Context) error { return nil }

type unavailableMenu struct{ u *Unavailable }

func (r unavailableMenu) Create(context.Context, *menu.Item) error { return r.u.err() }

func (r unavailableMenu) List(context.Context) ([]menu.Item, error) { return nil, r.u.err() }

type unavailableOrders struct{ u *Unavailable }

func (r unavailableOrders) Create(context.Context, *order.Order) error { return r.u.err() }

func (r unavailableOrders) Get(context.Context, string) (*order.Order, error) {
	return nil, r.u.err()
}

func (r unavailableOrders) List(context.Context) ([]order.Order, error) { return nil, r.u.err() }
