// Package storage defines the document store contract shared by the MongoDB
// and PostgreSQL backends.
package storage

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/restaurant-pos/internal/domain/menu"
	"github.com/xenking/restaurant-pos/internal/domain/order"
)

// ErrUnavailable is returned by every repository call when the store cannot
// be reached or was never configured.
var ErrUnavailable = errors.New("database unavailable")

// Backend is a connected document store.
type Backend interface {
	// Name is the short backend identifier, e.g. "mongodb".
	Name() string
	// Database is the logical database the backend works in.
	Database() string
	Ping(ctx context.Context) error
	// Collections lists the collections (or tables) present in Database.
	Collections(ctx context.Context) ([]string, error)

	Menu() menu.Repository
	Orders() order.Repository

	Close(ctx context.Context) error
}

type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string {
	return ErrUnavailable.Error() + ": " + e.err.Error()
}

func (e *unavailableError) Unwrap() error { return e.err }

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

// WrapUnavailable marks err as a connectivity failure. The result matches
// ErrUnavailable with errors.Is and still unwraps to err.
func WrapUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return &unavailableError{err: err}
}
